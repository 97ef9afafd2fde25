package logintokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
	"github.com/dmitrijs2005/rfcdiscuss/internal/timex"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect storage.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, d storage.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d}
}

func (r *SQLRepository) DeleteForUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM login_tokens WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), userID); err != nil {
		return storage.Error(r.dialect, err)
	}
	return nil
}

func (r *SQLRepository) Create(ctx context.Context, userID int64, code string, ttl time.Duration) (*models.LoginToken, error) {
	now := r.dialect.NowEpoch()
	query := fmt.Sprintf(
		`INSERT INTO login_tokens (user_id, token, expires_at, created_at)
		 VALUES (?, ?, %s + ?, %s)
		 RETURNING id, expires_at, created_at`, now, now)

	token := &models.LoginToken{UserID: userID, Code: code}
	var expiresAt, createdAt int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), userID, code, int64(ttl/time.Second)).
		Scan(&token.ID, &expiresAt, &createdAt)
	if err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	token.ExpiresAt = timex.FromUnix(expiresAt)
	token.CreatedAt = timex.FromUnix(createdAt)
	return token, nil
}

// Consume is a single conditional DELETE, so of two concurrent calls with
// the same code at most one sees a deleted row.
func (r *SQLRepository) Consume(ctx context.Context, userID int64, code string) (bool, error) {
	query := fmt.Sprintf(
		`DELETE FROM login_tokens
		 WHERE user_id = ? AND token = ? AND expires_at > %s`, r.dialect.NowEpoch())

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), userID, code)
	if err != nil {
		return false, storage.Error(r.dialect, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM login_tokens WHERE expires_at <= %s`, r.dialect.NowEpoch())

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, storage.Error(r.dialect, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
