package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrServerOffline indicates the remote API is unreachable
	ErrServerOffline = errors.New("api server is unreachable")

	// ErrNoRefreshToken indicates a refresh was attempted without a stored refresh token
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// NotFoundError reports which record was missing. It matches ErrNotFound
// under errors.Is.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AuthError covers bad credentials, missing or expired tokens, and
// registration conflicts.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// APIError is a remote call that failed for any reason other than auth or a
// missing record. Status 0 means the request never reached the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is lets transport-level failures match ErrServerOffline under errors.Is.
func (e *APIError) Is(target error) bool {
	return target == ErrServerOffline && e.Status == 0
}

// ValidationError reports caller-supplied data the backend refuses to store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
