package services

import (
	"bytes"
	"io"

	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
)

// File is a readable view over stored content, positioned at offset 0.
type File struct {
	Name        string
	Size        int64
	ContentHash string

	r *bytes.Reader
}

// NewFile wraps content, computing its fingerprint.
func NewFile(name string, content []byte) *File {
	return newFile(name, content, fingerprint.Sum(content))
}

func newFile(name string, content []byte, hash string) *File {
	return &File{
		Name:        name,
		Size:        int64(len(content)),
		ContentHash: hash,
		r:           bytes.NewReader(content),
	}
}

func (f *File) Read(p []byte) (int, error)                { return f.r.Read(p) }
func (f *File) ReadAt(p []byte, off int64) (int, error)   { return f.r.ReadAt(p, off) }
func (f *File) Seek(off int64, whence int) (int64, error) { return f.r.Seek(off, whence) }
func (f *File) WriteTo(w io.Writer) (int64, error)        { return f.r.WriteTo(w) }

// Close is a no-op; the content lives in memory.
func (f *File) Close() error { return nil }

// Len returns the number of unread bytes.
func (f *File) Len() int { return f.r.Len() }

var (
	_ io.ReadSeekCloser = (*File)(nil)
	_ io.ReaderAt       = (*File)(nil)
	_ io.WriterTo       = (*File)(nil)
)
