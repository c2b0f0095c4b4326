package web

import "github.com/pkg/errors"

// shutdownError signals an integrity issue that requires a graceful service
// shutdown.
type shutdownError struct {
	Message string
}

func (e *shutdownError) Error() string {
	return e.Message
}

// NewShutdownError returns an error that causes the framework to signal a
// graceful shutdown.
func NewShutdownError(message string) error {
	return &shutdownError{Message: message}
}

// IsShutdown checks to see if the shutdown error is contained in the
// specified error value.
func IsShutdown(err error) bool {
	var se *shutdownError
	return errors.As(err, &se)
}
