// Package mirror keeps an optional, non-authoritative copy of stored files
// next to a fingerprint sidecar used to detect stale copies.
package mirror

import (
	"context"
	"errors"
)

// ErrStopWalk may be returned from a Walk callback to end the walk early
// without reporting an error.
var ErrStopWalk = errors.New("stop walk")

// Backend is the byte store under a Mirror. Keys are slash-separated
// relative paths.
type Backend interface {
	// Read returns the bytes stored at key or common.ErrorNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the bytes at key. Readers never observe a partial write.
	Write(ctx context.Context, key string, content []byte) error
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Stat returns the size of the bytes at key or common.ErrorNotFound.
	Stat(ctx context.Context, key string) (int64, error)
	// Walk calls fn for every stored key.
	Walk(ctx context.Context, fn func(key string) error) error
}
