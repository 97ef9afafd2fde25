// Package common defines shared constants and sentinel errors used across
// the store, service and CLI layers of rfcdiscuss. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")
	ErrorStore    = errors.New("store error")

	// Schema errors. A store that fails EnsureSchema must not serve traffic.
	ErrorSchema = errors.New("schema error")

	// Validation errors (empty comment body, malformed input).
	ErrorValidation = errors.New("validation error")

	// ErrorAuthFailure covers a wrong, expired, consumed or never issued login
	// code. The cause is deliberately not distinguished.
	ErrorAuthFailure = errors.New("invalid or expired code")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
