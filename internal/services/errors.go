package services

import "github.com/pkg/errors"

// Domain errors surfaced by the lifecycle services. The API layer maps
// these onto HTTP status codes.
var (
	ErrWorkOrderNotFound  = errors.New("work order not found")
	ErrDuplicateNumber    = errors.New("work order number already exists")
	ErrInvalidReference   = errors.New("referenced record does not exist")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingIdentity    = errors.New("session missing user identity")
)

// ValidationError reports malformed or missing input. Allowed, when
// set, enumerates the accepted values (the status vocabulary).
type ValidationError struct {
	Message string
	Allowed []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a field-specific validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
