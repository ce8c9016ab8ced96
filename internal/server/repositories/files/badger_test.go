package files

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerRepo(t *testing.T) *BadgerRepository {
	t.Helper()
	r, err := NewBadgerRepository(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestBadgerRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return newBadgerRepo(t)
	})
}

func TestBadgerRepository_RequiresDir(t *testing.T) {
	_, err := NewBadgerRepository(BadgerOptions{})
	require.Error(t, err)
}

func TestBadgerRepository_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	r, err := NewBadgerRepository(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	_, err = r.Put(ctx, "kept", []byte("data"), 4)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = NewBadgerRepository(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got.Content)
}
