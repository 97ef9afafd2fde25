package models

import "time"

// Comment is an append-only remark on an externally stored document,
// addressed by DocumentSlug.
type Comment struct {
	ID           int64
	DocumentSlug string
	UserID       int64
	// AuthorEmail is filled on reads from the users table.
	AuthorEmail string
	Body        string
	CreatedAt   time.Time
}
