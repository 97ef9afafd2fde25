// Package comments declares the server-side repository contract for
// per-document comments and its SQL implementation.
package comments

import (
	"context"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
)

// Repository is append-only.
type Repository interface {
	// Create inserts c and fills its ID and CreatedAt. An unknown user
	// yields common.ErrorNotFound.
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)

	// ListBySlug returns the comments of slug oldest first.
	ListBySlug(ctx context.Context, slug string) ([]models.Comment, error)

	// CountBySlug returns the number of comments per slug. Slugs without
	// comments are absent.
	CountBySlug(ctx context.Context) (map[string]int, error)
}
