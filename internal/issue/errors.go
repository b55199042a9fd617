package issue

import "errors"

// ErrNotFound is returned by stores when an issue or relation does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is returned when a store refuses a write, such as a
// relation or a description, because it would violate one of its constraints.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
