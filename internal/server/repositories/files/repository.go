// Package files is the record store: the authoritative table mapping a file
// name to its content, size and content hash. Each operation touches a single
// record and is atomic at that granularity. Batch groups writes on backends
// with transactions.
package files

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/dbfiles/internal/server/models"
)

// Repository is implemented by every record store backend.
type Repository interface {
	// Get returns the full record, or common.ErrorNotFound.
	Get(ctx context.Context, name string) (*models.File, error)
	// Stat returns the record without loading its content, or common.ErrorNotFound.
	Stat(ctx context.Context, name string) (*models.FileInfo, error)
	// Put creates the record or fully replaces content, size and hash.
	Put(ctx context.Context, name string, content []byte, size int64) (*models.File, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Delete removes the record; a missing record is not an error.
	Delete(ctx context.Context, name string) error
	// List returns records whose name starts with prefix, ordered by name.
	List(ctx context.Context, prefix string) ([]*models.FileInfo, error)
}

// likePrefix turns prefix into a LIKE pattern matched with ESCAPE '\'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// Batcher is implemented by repositories that can apply several writes in a
// single transaction.
type Batcher interface {
	Batch(ctx context.Context, fn func(Repository) error) error
}

// Batch runs fn against a transactional view of r when r is a Batcher, or
// against r itself otherwise. An error from fn rolls the transaction back.
func Batch(ctx context.Context, r Repository, fn func(Repository) error) error {
	if b, ok := r.(Batcher); ok {
		return b.Batch(ctx, fn)
	}
	return fn(r)
}
