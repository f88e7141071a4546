package access

import (
	"errors"
	"fmt"
)

// ErrDenied is the sentinel all policy denials unwrap to. Callers use it to
// distinguish policy violations from generic failures.
var ErrDenied = errors.New("access denied")

// DeniedError carries the attempted action so calling surfaces can render
// role-appropriate messaging.
type DeniedError struct {
	Actor    Principal
	Resource string
	Action   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: role %q may not %q on %q", e.Actor.Role, e.Action, e.Resource)
}

func (e *DeniedError) Unwrap() error { return ErrDenied }
