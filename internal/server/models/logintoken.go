package models

import "time"

// LoginToken is a one-time numeric code issued to a user. At most one live
// token exists per user.
type LoginToken struct {
	ID        int64
	UserID    int64
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LoginRequest is the result of asking for a login code. Code must be
// delivered out of band (email); it is never part of a response to the
// requesting client.
type LoginRequest struct {
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Identity is what a successful verification yields for the session layer.
// SessionToken is a signed assertion of UserID and Email valid until
// ExpiresAt.
type Identity struct {
	UserID       int64
	Email        string
	SessionToken string
	ExpiresAt    time.Time
}
