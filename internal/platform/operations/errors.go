package operations

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a client requests an operation name that was
// never registered. It is always a client error, never an internal bug.
type NotFoundError struct {
	Operation string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operation %q not found", e.Operation)
}

// ValidationError is returned when a registered validator rejects the
// client-supplied variables. Any other error coming out of a validator is
// treated as internal.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError. Validators return it to reject input.
func Invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
