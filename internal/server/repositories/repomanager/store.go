package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/files"
)

// Supported record store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
)

// Store is an opened record store together with the handle that releases it.
type Store struct {
	Files  files.Repository
	closer io.Closer
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the record store selected by driver. For SQL drivers the
// schema is migrated before returning; for badger dsn is the data directory.
func Open(ctx context.Context, driver, dsn string, logger logging.Logger) (*Store, error) {
	switch driver {
	case DriverBadger:
		repo, err := files.NewBadgerRepository(files.BadgerOptions{Dir: dsn, Logger: logger})
		if err != nil {
			return nil, err
		}
		return &Store{Files: repo, closer: repo}, nil

	case DriverPostgres:
		return openSQL(ctx, "pgx", dsn, NewPostgresRepositoryManager())

	case DriverSQLite:
		return openSQL(ctx, "sqlite", dsn, NewSQLiteRepositoryManager())

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQL(ctx context.Context, driverName, dsn string, m RepositoryManager) (*Store, error) {
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrations: %w", err)
	}
	return &Store{Files: m.Files(db), closer: db}, nil
}
