package patients

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenNotFound is returned when a token has no stored payload.
	ErrTokenNotFound = errors.New("patients: token not found")

	// ErrTokenExists guards against a token colliding with a stored one.
	ErrTokenExists = errors.New("patients: token already exists")

	// ErrInvalidStatus marks a rejected patient status transition.
	ErrInvalidStatus = errors.New("patients: invalid status transition")
)

// StatusError reports the rejected move.
type StatusError struct {
	From Status
	To   Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("patients: invalid status transition: %s -> %s", e.From, e.To)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }
