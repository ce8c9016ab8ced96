package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/dbfiles/internal/fingerprint"
	"github.com/dmitrijs2005/dbfiles/internal/server/migrations"
	"github.com/dmitrijs2005/dbfiles/internal/server/mirror"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/files"
)

func newSQLiteRepo(t *testing.T) files.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))
	return files.NewSQLiteRepository(db)
}

func TestDump_WritesMissingAndStale(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	_, err := fx.storage.Save(ctx, "fresh.txt", bytes.NewReader([]byte("fresh")))
	require.NoError(t, err)
	_, err = fx.storage.Save(ctx, "stale.txt", bytes.NewReader([]byte("new")))
	require.NoError(t, err)
	_, err = fx.storage.Save(ctx, "missing.txt", bytes.NewReader([]byte("gone")))
	require.NoError(t, err)

	require.NoError(t, fx.mirror.Write(ctx, "fresh.txt", []byte("fresh"), true))
	require.NoError(t, fx.mirror.Write(ctx, "stale.txt", []byte("old"), true))

	n, err := fx.storage.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for name, want := range map[string]string{"fresh.txt": "fresh", "stale.txt": "new", "missing.txt": "gone"} {
		got, err := fx.mirror.Read(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got), name)
		assert.True(t, fx.mirror.IsFresh(ctx, name, fingerprint.Sum([]byte(want))), name)
	}

	n, err = fx.storage.Dump(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second dump has nothing to do")
}

func TestLoad_ImportsMirrorOnlyFiles(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	_, err := fx.storage.Save(ctx, "known.txt", bytes.NewReader([]byte("db copy")))
	require.NoError(t, err)
	require.NoError(t, fx.backend.Write(ctx, "known.txt", []byte("disk copy")))
	require.NoError(t, fx.backend.Write(ctx, "a/new.txt", []byte("new")))
	require.NoError(t, fx.backend.Write(ctx, `we\ird`, []byte("x")))

	n, err := fx.storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := fx.repo.Get(ctx, "a/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(rec.Content))
	assert.True(t, fx.mirror.IsFresh(ctx, "a/new.txt", rec.ContentHash), "import refreshes the sidecar")

	rec, err = fx.repo.Get(ctx, "known.txt")
	require.NoError(t, err)
	assert.Equal(t, "db copy", string(rec.Content), "existing records are not overwritten")
}

func TestLoad_BatchesOnTransactionalStore(t *testing.T) {
	repo := newSQLiteRepo(t)
	backend, err := mirror.NewLocal(t.TempDir())
	require.NoError(t, err)
	s := NewStorage(repo, mirror.New(backend), Options{MirrorEnabled: true})
	ctx := context.Background()

	total := loadBatchSize*2 + 3
	for i := 0; i < total; i++ {
		require.NoError(t, backend.Write(ctx, fmt.Sprintf("bulk/%03d.txt", i), []byte(fmt.Sprint(i))))
	}

	n, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, n)

	infos, err := repo.List(ctx, "bulk/")
	require.NoError(t, err)
	assert.Len(t, infos, total)
}

func TestLoad_PutFailureStops(t *testing.T) {
	boom := errors.New("disk full")
	repo := &failingRepo{Repository: newRepo(t), putErr: boom}
	backend, err := mirror.NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, backend.Write(context.Background(), "x.txt", []byte("x")))
	s := NewStorage(repo, mirror.New(backend), Options{MirrorEnabled: true})

	n, err := s.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestLoad_WalkFailure(t *testing.T) {
	s := NewStorage(newRepo(t), mirror.New(brokenBackend{}), Options{MirrorEnabled: true})
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, errDisk)
}
