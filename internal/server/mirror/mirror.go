package mirror

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
)

// HashDir holds fingerprint sidecars. Names inside it are never mirrored
// files.
const HashDir = ".hashes"

// Mirror pairs each mirrored file with a sidecar holding the fingerprint of
// the bytes it was written with.
type Mirror struct {
	backend Backend
}

func New(backend Backend) *Mirror {
	return &Mirror{backend: backend}
}

// FingerprintKey returns the sidecar key for name.
func FingerprintKey(name string) string {
	k := fingerprint.NameKey(name)
	return path.Join(HashDir, k[:2], k)
}

func (m *Mirror) Read(ctx context.Context, name string) ([]byte, error) {
	return m.backend.Read(ctx, name)
}

// Write stores content under name and records its fingerprint. With
// overwrite unset an existing copy is left untouched.
func (m *Mirror) Write(ctx context.Context, name string, content []byte, overwrite bool) error {
	if !overwrite {
		ok, err := m.Exists(ctx, name)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if err := m.backend.Write(ctx, name, content); err != nil {
		return fmt.Errorf("mirror write %q: %w", name, err)
	}
	if err := m.backend.Write(ctx, FingerprintKey(name), []byte(fingerprint.Sum(content))); err != nil {
		return fmt.Errorf("mirror fingerprint %q: %w", name, err)
	}
	return nil
}

// Remove deletes the bytes and the sidecar. Missing entries are ignored.
func (m *Mirror) Remove(ctx context.Context, name string) error {
	err := m.backend.Delete(ctx, name)
	return errors.Join(err, m.RemoveFingerprint(ctx, name))
}

func (m *Mirror) RemoveFingerprint(ctx context.Context, name string) error {
	return m.backend.Delete(ctx, FingerprintKey(name))
}

// IsFresh reports whether the mirrored copy of name holds the bytes whose
// fingerprint is expected. The sidecar must agree with expected and so must
// the bytes themselves, so out-of-band edits are caught. Any failure counts
// as stale.
func (m *Mirror) IsFresh(ctx context.Context, name, expected string) bool {
	recorded, err := m.backend.Read(ctx, FingerprintKey(name))
	if err != nil || strings.TrimSpace(string(recorded)) != expected {
		return false
	}
	content, err := m.backend.Read(ctx, name)
	if err != nil {
		return false
	}
	return fingerprint.Sum(content) == expected
}

func (m *Mirror) Exists(ctx context.Context, name string) (bool, error) {
	_, err := m.backend.Stat(ctx, name)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mirror) Size(ctx context.Context, name string) (int64, error) {
	return m.backend.Stat(ctx, name)
}

// Walk calls fn with the name of every mirrored file. Sidecars and
// in-flight temp files are skipped.
func (m *Mirror) Walk(ctx context.Context, fn func(name string) error) error {
	return m.backend.Walk(ctx, func(key string) error {
		if IsReserved(key) {
			return nil
		}
		return fn(key)
	})
}

// IsReserved reports whether name collides with the mirror's own
// bookkeeping (sidecars or temp files) and so cannot name a stored file.
func IsReserved(name string) bool {
	if name == HashDir || strings.HasPrefix(name, HashDir+"/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), tempPrefix)
}
