package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates a conflict with existing data
	ErrConflict = errors.New("conflict")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrInvalidCredentials indicates the email/password pair did not match an account
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked indicates too many failed attempts for the account
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled indicates the account exists but may not sign in
	ErrAccountDisabled = errors.New("account disabled")

	// ErrRateLimited indicates the caller was throttled
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the auth backend could not be reached
	ErrUnavailable = errors.New("service unavailable")
)

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidInputError creates an invalid input error with context
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// ConflictError creates a conflict error with context
func ConflictError(resource string) error {
	return fmt.Errorf("%s already exists: %w", resource, ErrConflict)
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// UnavailableError wraps a transport failure so callers can tell it apart from a rejection
func UnavailableError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
