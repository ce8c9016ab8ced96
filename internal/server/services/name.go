package services

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/server/mirror"
)

// MaxNameLength bounds a file name in bytes.
const MaxNameLength = 255

// ValidateName accepts relative, already-clean, slash-separated names.
// Names are rejected rather than rewritten so a caller never reads or
// overwrites a file under a name it did not ask for.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", common.ErrInvalidName)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d bytes", common.ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(name, "\x00\\"):
		return fmt.Errorf("%w: %q contains a NUL or backslash", common.ErrInvalidName, name)
	case path.IsAbs(name):
		return fmt.Errorf("%w: %q is absolute", common.ErrInvalidName, name)
	case path.Clean(name) != name:
		return fmt.Errorf("%w: %q is not clean", common.ErrInvalidName, name)
	case mirror.IsReserved(name):
		return fmt.Errorf("%w: %q is reserved", common.ErrInvalidName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q contains a relative segment", common.ErrInvalidName, name)
		}
	}
	return nil
}

// PrefixURL returns a URL function that escapes each segment of the name
// and joins it to prefix.
func PrefixURL(prefix string) func(name string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return func(name string) string {
		segs := strings.Split(name, "/")
		for i, s := range segs {
			segs[i] = url.PathEscape(s)
		}
		return prefix + strings.Join(segs, "/")
	}
}
