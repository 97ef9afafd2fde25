// Package users declares the server-side repository contract for user
// accounts and its SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
)

// Repository stores users keyed by normalized email. Implementations
// normalize the email argument themselves.
type Repository interface {
	// FindByEmail returns common.ErrorNotFound when no user has email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns common.ErrorNotFound when id is unknown.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Create inserts a user. A concurrent or earlier registration of the same
	// email yields common.ErrorConflict.
	Create(ctx context.Context, email string) (*models.User, error)
}
