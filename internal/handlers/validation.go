package handlers

import (
	"errors"
	"strings"

	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParseValidationErrors converts binding errors to user-friendly format.
// Non-validator errors (e.g. malformed JSON) yield a single body entry.
func ParseValidationErrors(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{Field: "body", Message: "Malformed request body"}}
	}

	out := make([]ValidationError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fieldError.Field()),
			Message: getErrorMessage(fieldError),
		})
	}
	return out
}

// inputErrorDetails turns an apperrors.InvalidInputError message into details
func inputErrorDetails(err error) []ValidationError {
	msg := err.Error()
	// "field: reason: invalid input"
	parts := strings.SplitN(strings.TrimSuffix(msg, ": "+apperrors.ErrInvalidInput.Error()), ": ", 2)
	if len(parts) != 2 {
		return []ValidationError{{Field: "body", Message: msg}}
	}
	return []ValidationError{{Field: parts[0], Message: parts[1]}}
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must not exceed " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
