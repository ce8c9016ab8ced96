package models

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile(t *testing.T) {
	f, err := NewFile("a/b.txt", []byte("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt", f.Name)
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, fingerprint.Sum([]byte("hello")), f.ContentHash)

	info := f.Info()
	assert.Equal(t, f.Name, info.Name)
	assert.Equal(t, f.Size, info.Size)
	assert.Equal(t, f.ContentHash, info.ContentHash)
}

func TestNewFile_SizeMismatch(t *testing.T) {
	_, err := NewFile("x", []byte("hello"), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedInput))
}

func TestNewFile_EmptyContent(t *testing.T) {
	f, err := NewFile("empty", nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, f.Content)
	assert.Equal(t, fingerprint.Sum(nil), f.ContentHash)
}
