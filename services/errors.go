package services

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request whose input is malformed: empty item
// lists, non-positive quantities, unknown vendors, blank chat text. It is
// never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidStateError rejects an operation that is not legal for the
// order's current status, e.g. accepting an already-rejected order.
type InvalidStateError struct {
	OrderID string
	Status  string
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %q", e.Op, e.OrderID, e.Status)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}
