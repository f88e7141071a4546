// Package clinical is the submission pipeline: redact, fan out to the
// provider council, synthesize, and persist the assisted draft.
package clinical

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/redact"
	"github.com/carelink/clinical-core/internal/reports"
	"github.com/carelink/clinical-core/pkg/logging"
)

// Gate authorizes submissions before the pipeline runs.
type Gate interface {
	Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error
}

// ReportWriter persists the assisted draft. The report service implements
// it.
type ReportWriter interface {
	Create(ctx context.Context, actor access.Principal, req reports.CreateRequest) (*reports.Report, error)
}

// Query is one clinical submission.
type Query struct {
	PatientToken string   `json:"patientToken"`
	Symptoms     []string `json:"symptoms"`
	History      string   `json:"history,omitempty"`
}

// Validate rejects malformed submissions.
func (q *Query) Validate() error {
	if q.PatientToken == "" {
		return fmt.Errorf("%w: patientToken is required", reports.ErrValidation)
	}
	if len(q.Symptoms) == 0 {
		return fmt.Errorf("%w: at least one symptom is required", reports.ErrValidation)
	}
	return nil
}

// Result is the synthesized response plus the persisted draft report.
type Result struct {
	Response council.Response `json:"response"`
	ReportID string           `json:"reportId"`
}

// Service runs the submission pipeline end to end. Provider failures are
// absorbed inside the orchestrator; only access, validation, and
// persistence failures reach the caller.
type Service struct {
	gate         Gate
	orchestrator *council.Orchestrator
	providers    []council.Provider
	writer       ReportWriter
	logger       *logging.Logger
}

// NewService wires the pipeline.
func NewService(gate Gate, orchestrator *council.Orchestrator, providers []council.Provider, writer ReportWriter, logger *logging.Logger) *Service {
	if gate == nil {
		panic("clinical: access gate required")
	}
	if orchestrator == nil {
		panic("clinical: orchestrator required")
	}
	if writer == nil {
		panic("clinical: report writer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		gate:         gate,
		orchestrator: orchestrator,
		providers:    providers,
		writer:       writer,
		logger:       logger.Component("clinical"),
	}
}

// Submit runs one clinical query. PII is stripped before any text leaves
// the process; only the anonymized form reaches providers and the stored
// draft.
func (s *Service) Submit(ctx context.Context, actor access.Principal, q Query) (*Result, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceCouncil, access.ActionSubmit, access.Context{"patient_token": q.PatientToken}); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	symptoms := strings.Join(q.Symptoms, ", ")
	input := symptoms
	if q.History != "" {
		input = symptoms + ". History: " + q.History
	}
	anonymized, entities := redact.Redact(input)
	anonymizedSymptoms, _ := redact.Redact(symptoms)

	results := s.orchestrator.Invoke(ctx, s.providers, anonymized)
	response := council.Synthesize(anonymizedSymptoms, results)

	report, err := s.writer.Create(ctx, actor, reports.CreateRequest{
		PatientID:  q.PatientToken,
		ProviderID: actor.ID,
		Content:    anonymized,
		Draft:      &response,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("clinical query processed",
		"report_id", report.ID,
		"triage_level", response.TriageLevel,
		"redacted_entities", len(entities),
	)
	return &Result{Response: response, ReportID: report.ID}, nil
}
