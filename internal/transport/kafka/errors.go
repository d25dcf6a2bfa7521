package kafka

import (
	"errors"

	"service-job-assignment/internal/apperr"
)

// RejectedError marks an offer command that redelivery cannot fix.
type RejectedError struct {
	Err error
}

func (e RejectedError) Error() string {
	if e.Err == nil {
		return "offer rejected"
	}
	return "offer rejected: " + e.Err.Error()
}

func (e RejectedError) Unwrap() error { return e.Err }

// Reject wraps err as a RejectedError. Reject(nil) is nil.
func Reject(err error) error {
	if err == nil {
		return nil
	}
	return RejectedError{Err: err}
}

// domain refusals are final for a command
var finalErrors = []error{
	apperr.ErrInvalid,
	apperr.ErrNotFound,
	apperr.ErrConflict,
	apperr.ErrInvalidState,
	apperr.ErrForbidden,
}

// rejected reports whether the consumer should commit the message despite err.
func rejected(err error) bool {
	var rej RejectedError
	if errors.As(err, &rej) {
		return true
	}
	for _, target := range finalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
