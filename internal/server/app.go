// Package server wires the rfcdiscuss core together: it opens the store,
// brings the schema up to date and builds the services the front end and
// the operator CLI call.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/config"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/services"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
)

// openStore is a seam for tests.
var openStore = storage.Open

type App struct {
	logger   logging.Logger
	db       *sql.DB
	Auth     *services.AuthService
	Comments *services.CommentService
	Tokens   *services.LoginTokenService
}

// NewApp opens the store described by c and ensures its schema. It returns
// no App when the schema cannot be brought up to date.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, dialect, err := openStore(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewSQLRepositoryManager(db, dialect, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info(ctx, "store ready", "driver", dialect.Name())

	tokens := services.NewLoginTokenService(db, rm, logger)
	return &App{
		logger:   logger,
		db:       db,
		Auth:     services.NewAuthService(db, rm, tokens, c, logger),
		Comments: services.NewCommentService(db, rm, logger),
		Tokens:   tokens,
	}, nil
}

// Close releases the store.
func (app *App) Close() error {
	return app.db.Close()
}
