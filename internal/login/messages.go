package login

import (
	"context"
	"errors"

	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
)

// User-facing texts for failed login attempts
const (
	MessageInvalidCredentials = "Invalid email or password"
	MessageAccountLocked      = "Too many failed attempts. Try again later"
	MessageAccountDisabled    = "This account has been disabled"
	MessageRateLimited        = "Too many requests. Please wait a moment"
	MessageTimeout            = "Login request timed out"
	MessageUnavailable        = "Login service is unavailable. Check your connection"
	MessageGeneric            = "Login failed. Please try again"
)

// DefaultErrorMessage maps an authentication error to the text shown on the screen
func DefaultErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return MessageInvalidCredentials
	case errors.Is(err, apperrors.ErrAccountLocked):
		return MessageAccountLocked
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return MessageAccountDisabled
	case errors.Is(err, apperrors.ErrRateLimited):
		return MessageRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return MessageTimeout
	case errors.Is(err, apperrors.ErrUnavailable):
		return MessageUnavailable
	default:
		return MessageGeneric
	}
}
