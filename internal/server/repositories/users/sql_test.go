package users

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/schema"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()
	ctx := context.Background()
	db, d, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := schema.NewManager(db, d, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, m.EnsureSchema(ctx))
	return NewSQLRepository(db, d)
}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewSQLRepository(db, storage.Postgres{}), mock, db
}

func TestCreateAndFind_NormalizesEmail(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, 5*time.Second)

	found, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "bob@example.com")
	require.NoError(t, err)

	_, err = repo.Create(ctx, " BOB@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestFind_Absent(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT id, email, created_at FROM users WHERE email = \$1$`).
		WithArgs("alice@example.com").
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByEmail(context.Background(), "Alice@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorStore)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PostgresQueryShape(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT INTO users \(email, created_at\)\s+VALUES \(\$1, CAST\(EXTRACT\(EPOCH FROM now\(\)\) AS BIGINT\)\)\s+RETURNING id, created_at$`
	mock.ExpectQuery(q).
		WithArgs("carol@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), int64(1700000000)))

	u, err := repo.Create(context.Background(), "Carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
