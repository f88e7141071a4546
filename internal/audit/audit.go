// Package audit maintains the append-only trail of access decisions and
// report mutations required for compliance review.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/clinical-core/internal/access"
)

// Decision is the recorded outcome of a gated operation.
type Decision string

const (
	DecisionGranted Decision = "GRANTED"
	DecisionDenied  Decision = "DENIED"
)

// Entry is one immutable audit record. Entries are never mutated or
// deleted; a bounded retention policy may evict the oldest ones.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Role      string    `json:"role,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Decision  Decision  `json:"decision"`
	Details   string    `json:"details,omitempty"`
}

// Trail is the append-only sink. Append must never fail silently: a
// persistence failure is always returned to the caller.
type Trail interface {
	Append(ctx context.Context, e Entry) error
	RecordDecision(ctx context.Context, d access.Decision) error
}

// Authorizer gates audit queries. *access.Engine satisfies it.
type Authorizer interface {
	Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error
}

// Filter selects entries for a query.
type Filter struct {
	ActorID  string
	Action   string
	Resource string
	Decision Decision
	From     time.Time
	To       time.Time
	Limit    int
}

// Matches reports whether the entry passes every set field of the filter.
func (f Filter) Matches(e Entry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// protectedActions are exempt from silent FIFO eviction.
var protectedActions = map[string]bool{
	access.ActionLock: true,
	"approve":         true,
}

// Protected reports whether the entry records a compliance-critical action.
func Protected(e Entry) bool {
	return protectedActions[e.Action]
}

func normalize(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

// entryFromDecision converts an access decision into an audit entry.
func entryFromDecision(d access.Decision) Entry {
	decision := DecisionDenied
	if d.Granted {
		decision = DecisionGranted
	}
	return normalize(Entry{
		ActorID:  d.Actor.ID,
		Role:     d.Actor.Role,
		Action:   d.Action,
		Resource: d.Resource,
		Decision: decision,
	})
}
