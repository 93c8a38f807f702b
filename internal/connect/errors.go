package connect

import (
	"errors"
	"fmt"
)

// ErrorClass is the normalized connector failure taxonomy.
type ErrorClass string

const (
	// ClassTransient covers timeouts, 429s and 5xx responses. Retried
	// locally with bounded backoff; becomes permanent once the retry
	// budget is spent.
	ClassTransient ErrorClass = "transient"

	// ClassPermanent covers 404s and malformed payloads. The record or
	// page is skipped and logged; the run continues.
	ClassPermanent ErrorClass = "permanent"

	// ClassAuth covers 401/403 when a key is mandatory for the requested
	// volume. Aborts this connector only; siblings continue.
	ClassAuth ErrorClass = "auth"
)

// Error wraps a connector failure with its normalized class.
type Error struct {
	Class      ErrorClass
	Source     string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("connector %s [%s]: %s: %v", e.Source, e.Class, e.Message, e.Underlying)
	}
	return fmt.Sprintf("connector %s [%s]: %s", e.Source, e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a classified connector error.
func NewError(class ErrorClass, source, message string, underlying error) *Error {
	return &Error{
		Class:      class,
		Source:     source,
		Message:    message,
		Underlying: underlying,
	}
}

// ClassOf extracts the error class; unclassified errors are treated as
// permanent so they never trigger a retry loop by accident.
func ClassOf(err error) ErrorClass {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassPermanent
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err error) bool {
	return ClassOf(err) == ClassTransient
}

// IsAuth reports whether the error should abort the whole connector.
func IsAuth(err error) bool {
	return ClassOf(err) == ClassAuth
}
