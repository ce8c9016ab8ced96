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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx stdlib driver.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Get loads the record named name.
func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.File, error) {
	query := `SELECT name, content, size, content_hash, created_at, updated_at FROM files WHERE name=$1`

	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&f.Name, &f.Content, &f.Size, &f.ContentHash, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// Stat loads everything but the content.
func (r *PostgresRepository) Stat(ctx context.Context, name string) (*models.FileInfo, error) {
	query := `SELECT name, size, content_hash, created_at, updated_at FROM files WHERE name=$1`

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

// Put upserts the record by name. On conflict content, size, hash and
// updated_at are replaced while created_at is kept.
func (r *PostgresRepository) Put(ctx context.Context, name string, content []byte, size int64) (*models.File, error) {
	f, err := models.NewFile(name, content, size)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO files (name, content, size, content_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name)
		DO UPDATE SET
			content = EXCLUDED.content,
			size = EXCLUDED.size,
			content_hash = EXCLUDED.content_hash,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, f.Name, f.Content, f.Size, f.ContentHash, r.now().UTC()).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Exists reports whether a record named name is present.
func (r *PostgresRepository) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM files WHERE name=$1)`, name).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	return ok, nil
}

// Delete removes the record. Zero affected rows is fine.
func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE name=$1`, name); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns metadata for names starting with prefix.
func (r *PostgresRepository) List(ctx context.Context, prefix string) ([]*models.FileInfo, error) {
	query := `SELECT name, size, content_hash, created_at, updated_at FROM files
		WHERE name LIKE $1 ESCAPE '\' ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	return scanInfos(rows)
}

func scanInfos(rows *sql.Rows) ([]*models.FileInfo, error) {
	var result []*models.FileInfo
	for rows.Next() {
		var fi models.FileInfo
		if err := rows.Scan(&fi.Name, &fi.Size, &fi.ContentHash, &fi.CreatedAt, &fi.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &fi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ Repository = (*PostgresRepository)(nil)

// Batch runs fn on a repository bound to one transaction. A repository that
// is already bound to a transaction runs fn directly.
func (r *PostgresRepository) Batch(ctx context.Context, fn func(Repository) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(&PostgresRepository{db: tx, now: r.now})
	})
}

var _ Batcher = (*PostgresRepository)(nil)
