package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/dbx"
	"github.com/dmitrijs2005/dbfiles/internal/server/models"
)

// SQLiteRepository implements Repository on the pure-Go modernc.org/sqlite
// driver. It suits single-node deployments and tests.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.File, error) {

	query := `select name, content, size, content_hash, created_at, updated_at from files where name=?`

	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&f.Name, &f.Content, &f.Size, &f.ContentHash, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	if f.Content == nil {
		f.Content = []byte{}
	}

	return f, nil
}

func (r *SQLiteRepository) Stat(ctx context.Context, name string) (*models.FileInfo, error) {

	query := `select name, size, content_hash, created_at, updated_at from files where name=?`

	fi := &models.FileInfo{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&fi.Name, &fi.Size, &fi.ContentHash, &fi.CreatedAt, &fi.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return fi, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, name string, content []byte, size int64) (*models.File, error) {

	f, err := models.NewFile(name, content, size)
	if err != nil {
		return nil, err
	}

	query := ` INSERT INTO files (name, content, size, content_hash, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				content = excluded.content,
				size = excluded.size,
				content_hash = excluded.content_hash,
				updated_at = excluded.updated_at
	`
	now := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, query, f.Name, f.Content, f.Size, f.ContentHash, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert file: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `select created_at, updated_at from files where name=?`, f.Name).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back file: %w", err)
	}

	return f, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `select count(*) from files where name=?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `delete from files where name=?`, name); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, prefix string) ([]*models.FileInfo, error) {

	// instr is case-sensitive where sqlite's LIKE is not.
	query := `select name, size, content_hash, created_at, updated_at from files
		where instr(name, ?) = 1 order by name`
	rows, err := r.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	return scanInfos(rows)
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Batch(ctx context.Context, fn func(Repository) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(&SQLiteRepository{db: tx, now: r.now})
	})
}
