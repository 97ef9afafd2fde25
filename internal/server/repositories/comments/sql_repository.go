package comments

import (
	"context"
	"fmt"

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

func (r *SQLRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	query := fmt.Sprintf(
		`INSERT INTO comments (rfc_slug, user_id, body, created_at)
		 VALUES (?, ?, ?, %s)
		 RETURNING id, created_at`, r.dialect.NowEpoch())

	var createdAt int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), c.DocumentSlug, c.UserID, c.Body).
		Scan(&c.ID, &createdAt)
	if err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	c.CreatedAt = timex.FromUnix(createdAt)
	return c, nil
}

// Timestamps have one second resolution; id breaks ties in insertion order.
func (r *SQLRepository) ListBySlug(ctx context.Context, slug string) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.rfc_slug, c.user_id, u.email, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.rfc_slug = ?
		ORDER BY c.created_at, c.id`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), slug)
	if err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	defer rows.Close()

	result := []models.Comment{}
	for rows.Next() {
		var (
			item      models.Comment
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.DocumentSlug, &item.UserID, &item.AuthorEmail, &item.Body, &createdAt); err != nil {
			return nil, storage.Error(r.dialect, err)
		}
		item.CreatedAt = timex.FromUnix(createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	return result, nil
}

func (r *SQLRepository) CountBySlug(ctx context.Context) (map[string]int, error) {
	query := `SELECT rfc_slug, COUNT(*) FROM comments GROUP BY rfc_slug`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			slug string
			n    int
		)
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, storage.Error(r.dialect, err)
		}
		counts[slug] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Error(r.dialect, err)
	}
	return counts, nil
}
