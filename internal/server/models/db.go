// Package models defines server-side data models persisted in the database
// and the values handed to external collaborators.
package models

import "time"

// User is keyed by its normalized email. PasswordHash exists in the table
// only for legacy rows and is never read here.
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
