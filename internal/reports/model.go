// Package reports drives the finite-state lifecycle of clinical reports
// and their durable locked-id set.
package reports

import (
	"time"

	"github.com/carelink/clinical-core/internal/council"
)

// Status is the lifecycle state of a report. Transitions are monotonic
// along DRAFT → AI_ASSISTED → DOCTOR_APPROVED → LOCKED; LOCKED is terminal.
type Status string

const (
	StatusDraft          Status = "DRAFT"
	StatusAIAssisted     Status = "AI_ASSISTED"
	StatusDoctorApproved Status = "DOCTOR_APPROVED"
	StatusLocked         Status = "LOCKED"
)

func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 1
	case StatusAIAssisted:
		return 2
	case StatusDoctorApproved:
		return 3
	case StatusLocked:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.rank() > 0 }

// CanTransitionTo reports whether next is a legal forward move. Backward
// moves are rejected, LOCKED is only reachable from DOCTOR_APPROVED, and
// nothing leaves LOCKED.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if next.rank() <= s.rank() {
		return false
	}
	if next == StatusLocked {
		return s == StatusDoctorApproved
	}
	return true
}

// Report is a clinical report and its assisted draft.
type Report struct {
	ID           string            `json:"id"`
	PatientID    string            `json:"patientId"`
	ProviderID   string            `json:"providerId"`
	Content      string            `json:"content"`
	Status       Status            `json:"status"`
	CouncilDraft *council.Response `json:"councilDraft,omitempty"`
	ApprovedAt   *time.Time        `json:"approvedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// CreateRequest carries the fields required to open a new draft report.
type CreateRequest struct {
	PatientID  string            `json:"patientId"`
	ProviderID string            `json:"providerId"`
	Content    string            `json:"content"`
	Draft      *council.Response `json:"councilDraft,omitempty"`
}

// Validate rejects malformed intake.
func (r *CreateRequest) Validate() error {
	if r.PatientID == "" {
		return validationError("patientId is required")
	}
	if r.ProviderID == "" {
		return validationError("providerId is required")
	}
	return nil
}

// Patch is a partial mutation applied through Service.Update. A nil field
// is left unchanged. Status may not be patched to LOCKED; locking has its
// own, more privileged path.
type Patch struct {
	Content      *string           `json:"content,omitempty"`
	Status       *Status           `json:"status,omitempty"`
	CouncilDraft *council.Response `json:"councilDraft,omitempty"`
}
