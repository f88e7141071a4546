package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrReportNotFound is returned when a report id does not exist.
	ErrReportNotFound = errors.New("report not found")

	// ErrValidation marks malformed input, recovered locally and surfaced
	// as a rejection to the caller.
	ErrValidation = errors.New("invalid report input")

	// ErrLockConflict is returned to the loser of a concurrent mutation
	// race on one report id. Callers should retry with fresh state, not
	// blindly reapply the same patch.
	ErrLockConflict = errors.New("report lock conflict")

	// ErrInvalidTransition marks a status change the state machine rejects.
	ErrInvalidTransition = errors.New("invalid report status transition")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// TransitionError reports the rejected move.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid report status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
