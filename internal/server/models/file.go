// Package models defines server-side data models persisted by the record store.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
)

// File is the authoritative record of a stored file.
type File struct {
	// Name is the slash-separated identifier and primary key.
	Name string
	// Content holds the raw bytes. Size always equals len(Content).
	Content []byte
	Size    int64
	// ContentHash is fingerprint.Sum(Content), used to detect stale mirrors.
	ContentHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileInfo is a File without its content.
type FileInfo struct {
	Name        string
	Size        int64
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFile builds a record for content, rejecting a size that disagrees with
// the number of bytes supplied.
func NewFile(name string, content []byte, size int64) (*File, error) {
	if size != int64(len(content)) {
		return nil, fmt.Errorf("%w: size %d does not match %d content bytes", common.ErrMalformedInput, size, len(content))
	}
	if content == nil {
		content = []byte{}
	}
	return &File{
		Name:        name,
		Content:     content,
		Size:        size,
		ContentHash: fingerprint.Sum(content),
	}, nil
}

// Info drops the content.
func (f *File) Info() *FileInfo {
	return &FileInfo{
		Name:        f.Name,
		Size:        f.Size,
		ContentHash: f.ContentHash,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
