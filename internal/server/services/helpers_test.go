package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/config"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/logintokens"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/users"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()
	db, d, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(db, d, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, rm.EnsureSchema(ctx))
	return db, rm
}

func newUser(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, email string) *models.User {
	t.Helper()
	u, err := rm.Users(db).Create(context.Background(), email)
	require.NoError(t, err)
	return u
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", SessionValidityDuration: time.Hour}
}

// stubCodes makes generateCode return codes in order.
func stubCodes(t *testing.T, codes ...string) {
	t.Helper()
	orig := generateCode
	t.Cleanup(func() { generateCode = orig })
	generateCode = func() (string, error) {
		if len(codes) == 0 {
			return "", errors.New("out of codes")
		}
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func tokenRows(t *testing.T, db *sql.DB, userID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM login_tokens WHERE user_id = ?`, userID).Scan(&n))
	return n
}

// faultyManager wraps a real manager and injects repository failures.
type faultyManager struct {
	repomanager.RepositoryManager
	purgeErr     error
	hideUserOnce bool
}

func (m *faultyManager) LoginTokens(db dbx.DBTX) logintokens.Repository {
	return &faultyTokens{Repository: m.RepositoryManager.LoginTokens(db), purgeErr: m.purgeErr}
}

func (m *faultyManager) Users(db dbx.DBTX) users.Repository {
	return &racingUsers{Repository: m.RepositoryManager.Users(db), m: m}
}

type faultyTokens struct {
	logintokens.Repository
	purgeErr error
}

func (r *faultyTokens) DeleteExpired(ctx context.Context) (int64, error) {
	if r.purgeErr != nil {
		return 0, r.purgeErr
	}
	return r.Repository.DeleteExpired(ctx)
}

// racingUsers pretends the first lookup ran before a concurrent create.
type racingUsers struct {
	users.Repository
	m *faultyManager
}

func (r *racingUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.m.hideUserOnce {
		r.m.hideUserOnce = false
		return nil, common.ErrorNotFound
	}
	return r.Repository.FindByEmail(ctx, email)
}
