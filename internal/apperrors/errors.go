package apperrors

import "errors"

// Common errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("permission denied")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")

	// ErrNotConnected is returned when no server or session is configured.
	ErrNotConnected = errors.New("not connected. run: skillhub login <url>")
)

// CustomError attaches a user-facing message to one of the sentinel errors.
type CustomError struct {
	Err     error
	Message string
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewForbiddenError creates a permission error with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrForbidden, Message: message}
}

// NewNotFoundError creates a not-found error with a message
func NewNotFoundError(message string) error {
	return &CustomError{Err: ErrNotFound, Message: message}
}

// NewValidationError creates a validation error with a message
func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidation, Message: message}
}

// Is reports whether err matches target or any of the extra errors.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
