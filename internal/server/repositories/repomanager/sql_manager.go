// Package repomanager provides a concrete RepositoryManager for the SQL
// stores, wiring together repository constructors and schema reconciliation.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/comments"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/logintokens"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/users"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/schema"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
)

// SQLRepositoryManager vends repositories for one store and dialect.
type SQLRepositoryManager struct {
	dialect storage.Dialect
	schema  *schema.Manager
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// LoginTokens returns a logintokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) LoginTokens(db dbx.DBTX) logintokens.Repository {
	return logintokens.NewSQLRepository(db, m.dialect)
}

// Comments returns a comments.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Comments(db dbx.DBTX) comments.Repository {
	return comments.NewSQLRepository(db, m.dialect)
}

// EnsureSchema brings the store to the current table set; see schema.Manager.
func (m *SQLRepositoryManager) EnsureSchema(ctx context.Context) error {
	return m.schema.EnsureSchema(ctx)
}

// NewSQLRepositoryManager constructs a RepositoryManager for db.
func NewSQLRepositoryManager(db *sql.DB, d storage.Dialect, logger logging.Logger) (RepositoryManager, error) {
	sm, err := schema.NewManager(db, d, logger)
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: d, schema: sm}, nil
}
