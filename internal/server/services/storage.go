// Package services contains server-side business logic. This file implements
// Storage, the entry point that keeps the record store and the mirror in step.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server/mirror"
	"github.com/dmitrijs2005/dbfiles/internal/server/models"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/files"
)

// Options configures a Storage.
type Options struct {
	// MirrorEnabled turns on write-through on save and repair of stale
	// copies on open. Fallback reads work whenever a mirror is attached.
	MirrorEnabled bool
	// URLFunc maps a name to its public URL. Defaults to PrefixURL("/files/").
	URLFunc func(name string) string
	Logger  logging.Logger
}

// Storage serves files from the record store, falling back to and
// importing from the mirror.
//
//   - Open: record store first; a miss falls back to the mirror and imports.
//   - Save: record store, then write-through to the mirror.
//   - Delete: both layers, unconditionally.
//
// Record store errors propagate. Mirror errors are logged and swallowed.
type Storage struct {
	files  files.Repository
	mirror *mirror.Mirror
	opts   Options
	log    logging.Logger
}

// NewStorage builds a Storage. m may be nil when no mirror is configured.
func NewStorage(repo files.Repository, m *mirror.Mirror, opts Options) *Storage {
	if opts.URLFunc == nil {
		opts.URLFunc = PrefixURL("/files/")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Storage{files: repo, mirror: m, opts: opts, log: log}
}

func (s *Storage) writeThrough() bool {
	return s.opts.MirrorEnabled && s.mirror != nil
}

// Open returns the content stored under name.
func (s *Storage) Open(ctx context.Context, name string) (*File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	rec, err := s.files.Get(ctx, name)
	if err == nil {
		if s.writeThrough() && !s.mirror.IsFresh(ctx, name, rec.ContentHash) {
			if err := s.mirror.Write(ctx, name, rec.Content, true); err != nil {
				s.log.Warn(ctx, "mirror repair failed", "name", name, "error", err)
			}
		}
		return newFile(name, rec.Content, rec.ContentHash), nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}

	if s.mirror == nil {
		return nil, fmt.Errorf("open %q: %w", name, common.ErrorNotFound)
	}
	content, err := s.mirror.Read(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "mirror read failed", "name", name, "error", err)
		}
		return nil, fmt.Errorf("open %q: %w", name, common.ErrorNotFound)
	}

	rec, err = s.importFile(ctx, name, content)
	if err != nil {
		return nil, err
	}
	return newFile(name, rec.Content, rec.ContentHash), nil
}

func (s *Storage) importFile(ctx context.Context, name string, content []byte) (*models.File, error) {
	rec, err := s.files.Put(ctx, name, content, int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", name, err)
	}
	s.imported(ctx, name, content)
	return rec, nil
}

// imported rewrites the mirrored copy of a freshly imported file so its
// sidecar matches the new record.
func (s *Storage) imported(ctx context.Context, name string, content []byte) {
	s.log.Info(ctx, "imported file from mirror", "name", name, "size", len(content))
	if !s.writeThrough() {
		return
	}
	if err := s.mirror.Write(ctx, name, content, true); err != nil {
		s.log.Warn(ctx, "mirror fingerprint refresh failed", "name", name, "error", err)
	}
}

// Save stores everything r yields under name and returns name.
//
// If r reports its length (Len, Size or Stat) and the bytes read disagree,
// the save fails with common.ErrMalformedInput, as does a read error.
func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	hint, hasHint := lengthHint(r)
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read %q: %v", common.ErrMalformedInput, name, err)
	}
	size := int64(len(content))
	if hasHint && hint != size {
		return "", fmt.Errorf("%w: %q announced %d bytes, read %d", common.ErrMalformedInput, name, hint, size)
	}

	if _, err := s.files.Put(ctx, name, content, size); err != nil {
		return "", fmt.Errorf("save %q: %w", name, err)
	}
	if s.writeThrough() {
		if err := s.mirror.Write(ctx, name, content, true); err != nil {
			s.log.Warn(ctx, "mirror write failed", "name", name, "error", err)
		}
	}
	return name, nil
}

// lengthHint reports the number of bytes r claims it will yield.
func lengthHint(r io.Reader) (int64, bool) {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len()), true
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return 0, false
		}
		size := info.Size()
		if sk, ok := r.(io.Seeker); ok {
			if off, err := sk.Seek(0, io.SeekCurrent); err == nil {
				size -= off
			}
		}
		return size, true
	case interface{ Size() int64 }:
		return v.Size(), true
	}
	return 0, false
}

// Exists reports whether either layer holds name.
func (s *Storage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	ok, err := s.files.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", name, err)
	}
	if ok || s.mirror == nil {
		return ok, nil
	}
	ok, err = s.mirror.Exists(ctx, name)
	if err != nil {
		s.log.Warn(ctx, "mirror exists failed", "name", name, "error", err)
		return false, nil
	}
	return ok, nil
}

// Delete removes name from both layers. Deleting a missing name succeeds.
// The mirror is cleaned even when the record store fails; that failure is
// still returned.
func (s *Storage) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	var recErr error
	if err := s.files.Delete(ctx, name); err != nil && !errors.Is(err, common.ErrorNotFound) {
		recErr = fmt.Errorf("delete %q: %w", name, err)
	}

	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, name); err != nil {
			s.log.Warn(ctx, "mirror removal failed", "name", name, "error", err)
		}
	}
	return recErr
}

// URL returns the public URL of name. No I/O is performed.
func (s *Storage) URL(name string) string {
	return s.opts.URLFunc(name)
}

// Size returns the byte length of name, preferring the record store.
func (s *Storage) Size(ctx context.Context, name string) (int64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	info, err := s.files.Stat(ctx, name)
	if err == nil {
		return info.Size, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return 0, fmt.Errorf("size %q: %w", name, err)
	}

	if s.mirror == nil {
		return 0, fmt.Errorf("size %q: %w", name, common.ErrorNotFound)
	}
	size, err := s.mirror.Size(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "mirror size failed", "name", name, "error", err)
		}
		return 0, fmt.Errorf("size %q: %w", name, common.ErrorNotFound)
	}
	return size, nil
}

// List returns record metadata for names starting with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]*models.FileInfo, error) {
	return s.files.List(ctx, prefix)
}
