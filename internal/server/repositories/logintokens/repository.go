// Package logintokens declares the server-side repository contract for
// one-time login codes and its SQL implementation. Expiry is always judged
// against the store's clock.
package logintokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
)

// Repository persists login tokens.
type Repository interface {
	// DeleteForUser removes every token of userID.
	DeleteForUser(ctx context.Context, userID int64) error

	// Create stores code for userID, expiring ttl after the store's now.
	Create(ctx context.Context, userID int64, code string, ttl time.Duration) (*models.LoginToken, error)

	// Consume deletes the token matching userID and code if it has not
	// expired and reports whether one was deleted.
	Consume(ctx context.Context, userID int64, code string) (bool, error)

	// DeleteExpired removes all expired tokens and returns how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
