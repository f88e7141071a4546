// Package council fans a clinical submission out to independent inference
// providers and reconciles their disjoint outputs into one synthesized
// answer with a bounded confidence score and a discrete triage level.
package council

import (
	"context"
	"errors"
	"time"
)

// ProviderRole describes which seat a provider holds on the council.
type ProviderRole string

const (
	RoleDiagnosis ProviderRole = "diagnosis"
	RoleRisk      ProviderRole = "risk"
	RoleNarrative ProviderRole = "narrative"
)

// ErrProviderTimeout marks a call that exceeded its per-provider deadline.
var ErrProviderTimeout = errors.New("council: provider timed out")

// ErrProvider marks any other transport or vendor failure.
var ErrProvider = errors.New("council: provider failed")

// Differential is one candidate diagnosis with the provider's own
// confidence in it.
type Differential struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// RiskAssessment carries the risk provider's flags and urgency hint.
type RiskAssessment struct {
	Flags   []string `json:"flags"`
	Urgency string   `json:"urgency,omitempty"`
}

// Payload is the internal shape every vendor response is adapted into at
// the provider boundary. Exactly the fields for the payload's Kind are set.
type Payload struct {
	Kind          ProviderRole    `json:"kind"`
	Differentials []Differential  `json:"differentials,omitempty"`
	Risk          *RiskAssessment `json:"risk,omitempty"`
	Narrative     string          `json:"narrative,omitempty"`
}

// Provider is one independent inference backend. Generate receives only
// anonymized text; redaction happens before the council is convened.
type Provider interface {
	Name() string
	Role() ProviderRole
	Generate(ctx context.Context, anonymizedInput string) (Payload, error)
}

// Result is the settled outcome of one provider call. When Fallback is
// true the payload is the deterministic canned response for the provider's
// role and Err holds the absorbed failure.
type Result struct {
	Provider string
	Role     ProviderRole
	Payload  Payload
	Err      error
	Fallback bool
	Elapsed  time.Duration
}
