package files

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises behaviour every backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("get missing", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Get(context.Background(), "nope")
		assert.True(t, errors.Is(err, common.ErrorNotFound), "got %v", err)

		_, err = r.Stat(context.Background(), "nope")
		assert.True(t, errors.Is(err, common.ErrorNotFound), "got %v", err)
	})

	t.Run("put then get", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		f, err := r.Put(ctx, "a/b.txt", []byte("hello"), 5)
		require.NoError(t, err)
		assert.Equal(t, fingerprint.Sum([]byte("hello")), f.ContentHash)

		got, err := r.Get(ctx, "a/b.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), got.Content)
		assert.Equal(t, int64(5), got.Size)
		assert.Equal(t, f.ContentHash, got.ContentHash)

		fi, err := r.Stat(ctx, "a/b.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(5), fi.Size)
		assert.Equal(t, f.ContentHash, fi.ContentHash)

		ok, err := r.Exists(ctx, "a/b.txt")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("put replaces content and keeps created_at", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		first, err := r.Put(ctx, "doc", []byte("one"), 3)
		require.NoError(t, err)
		second, err := r.Put(ctx, "doc", []byte("second"), 6)
		require.NoError(t, err)

		got, err := r.Get(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got.Content)
		assert.Equal(t, int64(6), got.Size)
		assert.Equal(t, fingerprint.Sum([]byte("second")), got.ContentHash)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	})

	t.Run("put rejects size mismatch", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Put(context.Background(), "bad", []byte("abc"), 10)
		assert.True(t, errors.Is(err, common.ErrMalformedInput), "got %v", err)

		ok, err := r.Exists(context.Background(), "bad")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty content", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()
		_, err := r.Put(ctx, "empty", []byte{}, 0)
		require.NoError(t, err)

		got, err := r.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, got.Content)
		assert.Equal(t, int64(0), got.Size)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.Delete(ctx, "ghost"))

		_, err := r.Put(ctx, "x", []byte("x"), 1)
		require.NoError(t, err)
		require.NoError(t, r.Delete(ctx, "x"))
		require.NoError(t, r.Delete(ctx, "x"))

		ok, err := r.Exists(ctx, "x")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("list by prefix", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()
		for _, name := range []string{"img/b.png", "img/a.png", "doc/readme", "img_x", "IMG/upper"} {
			_, err := r.Put(ctx, name, []byte(name), int64(len(name)))
			require.NoError(t, err)
		}

		got, err := r.List(ctx, "img/")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "img/a.png", got[0].Name)
		assert.Equal(t, "img/b.png", got[1].Name)
		assert.Equal(t, int64(len("img/a.png")), got[0].Size)

		all, err := r.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}
