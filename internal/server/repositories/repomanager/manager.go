package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dbfiles/internal/dbx"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/files"
)

// RepositoryManager vends repositories for one SQL dialect and knows how to
// bring that dialect's schema up to date.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
}
