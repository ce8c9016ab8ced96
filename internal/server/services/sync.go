package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/files"
)

// ErrNoMirror is returned by Dump and Load when no mirror is attached.
var ErrNoMirror = errors.New("mirror not configured")

// Dump writes every record whose mirrored copy is missing or stale to the
// mirror and returns how many were written.
func (s *Storage) Dump(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, ErrNoMirror
	}
	infos, err := s.files.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("dump: %w", err)
	}

	var n int
	for _, info := range infos {
		if s.mirror.IsFresh(ctx, info.Name, info.ContentHash) {
			continue
		}
		rec, err := s.files.Get(ctx, info.Name)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("dump %q: %w", info.Name, err)
		}
		if err := s.mirror.Write(ctx, rec.Name, rec.Content, true); err != nil {
			return n, fmt.Errorf("dump %q: %w", rec.Name, err)
		}
		n++
	}
	s.log.Info(ctx, "dumped records to mirror", "written", n, "total", len(infos))
	return n, nil
}

// loadBatchSize bounds how many imports Load commits per transaction.
const loadBatchSize = 64

type pendingImport struct {
	name    string
	content []byte
}

// Load imports every mirrored file the record store does not hold and
// returns how many were imported. Names that are not valid file names are
// skipped. Imports are committed in batches on record stores that support
// transactions.
func (s *Storage) Load(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, ErrNoMirror
	}

	var (
		n     int
		batch []pendingImport
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := files.Batch(ctx, s.files, func(repo files.Repository) error {
			for _, p := range batch {
				if _, err := repo.Put(ctx, p.name, p.content, int64(len(p.content))); err != nil {
					return fmt.Errorf("import %q: %w", p.name, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, p := range batch {
			s.imported(ctx, p.name, p.content)
		}
		n += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.mirror.Walk(ctx, func(name string) error {
		if err := ValidateName(name); err != nil {
			s.log.Warn(ctx, "skipping mirrored file", "name", name, "error", err)
			return nil
		}
		ok, err := s.files.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("load %q: %w", name, err)
		}
		if ok {
			return nil
		}
		content, err := s.mirror.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("load %q: %w", name, err)
		}
		batch = append(batch, pendingImport{name: name, content: content})
		if len(batch) >= loadBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return n, err
	}
	s.log.Info(ctx, "loaded mirror into record store", "imported", n)
	return n, nil
}
