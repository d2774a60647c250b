package auth

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password so that login failures cannot be used to enumerate users.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrUsernameTaken   = errors.New("username already taken")

	// ErrCorruptCredential marks a stored password hash that cannot be
	// parsed. It is logged server-side and never shown to clients.
	ErrCorruptCredential = errors.New("corrupt credential record")
)

// ValidationError carries every violated rule, not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
