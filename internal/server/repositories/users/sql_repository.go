package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
	"github.com/dmitrijs2005/rfcdiscuss/internal/timex"
)

// SQLRepository implements Repository over a dbx.DBTX for any storage.Dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect storage.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, d storage.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d}
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, created_at FROM users WHERE email = ?`
	return r.scanOne(ctx, query, common.NormalizeEmail(email))
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, created_at FROM users WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

func (r *SQLRepository) Create(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(
		`INSERT INTO users (email, created_at)
		 VALUES (?, %s)
		 RETURNING id, created_at`, r.dialect.NowEpoch())

	user := &models.User{Email: common.NormalizeEmail(email)}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), user.Email).Scan(&user.ID, &createdAt)
	if err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	user.CreatedAt = timex.FromUnix(createdAt)
	return user, nil
}

func (r *SQLRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg).Scan(&user.ID, &user.Email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, storage.Error(r.dialect, err)
	}
	user.CreatedAt = timex.FromUnix(createdAt)
	return user, nil
}
