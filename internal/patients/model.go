// Package patients holds the patient intake model and the tokenization
// service that exchanges a submission for an opaque token.
package patients

import "time"

// Status is the intake lifecycle state. It only moves forward; patients
// are never hard-deleted.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusCompleted   Status = "COMPLETED"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusUnderReview:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.rank() > 0 }

// Payload is a patient submission as received at intake. It is the unit
// that gets serialized, encrypted, and bound to a token.
type Payload struct {
	Name        string   `json:"name"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Symptoms    []string `json:"symptoms"`
	History     string   `json:"history,omitempty"`
}

// Patient is the stored intake record. Identifying fields live only
// inside the encrypted payload behind DataToken.
type Patient struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	AssignedProvider string     `json:"assignedProvider,omitempty"`
	DataToken        string     `json:"dataToken,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// UpdateStatus applies a forward-only transition.
func (p *Patient) UpdateStatus(next Status) error {
	if !next.Valid() {
		return &StatusError{From: p.Status, To: next}
	}
	if next.rank() <= p.Status.rank() {
		return &StatusError{From: p.Status, To: next}
	}
	p.Status = next
	now := time.Now().UTC()
	p.UpdatedAt = now
	if next == StatusCompleted {
		p.CompletedAt = &now
	}
	return nil
}
