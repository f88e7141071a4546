package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/pkg/logging"
)

// Gate authorizes report operations before they run. The access engine
// implements it, recording one audit entry per call.
type Gate interface {
	Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error
}

// Observer counts lock conflicts for metrics. Optional.
type Observer interface {
	ObserveLockConflict()
}

// Service drives the report lifecycle. All mutations on one report id are
// serialized through a per-id mutex, so a concurrent lock race has exactly
// one winner.
type Service struct {
	repo     Repository
	locked   LockedSet
	gate     Gate
	observer Observer
	logger   *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the lifecycle service.
func NewService(repo Repository, locked LockedSet, gate Gate, logger *logging.Logger) *Service {
	if repo == nil {
		panic("reports: repository required")
	}
	if locked == nil {
		panic("reports: locked set required")
	}
	if gate == nil {
		panic("reports: access gate required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		locked: locked,
		gate:   gate,
		logger: logger.Component("reports"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// WithObserver attaches a metrics observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// Create opens a new report. The initial status is DRAFT unless an
// assisted draft is attached, in which case it starts at AI_ASSISTED.
func (s *Service) Create(ctx context.Context, actor access.Principal, req CreateRequest) (*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		PatientID:    req.PatientID,
		ProviderID:   req.ProviderID,
		Content:      req.Content,
		Status:       StatusDraft,
		CouncilDraft: req.Draft,
	}
	if req.Draft != nil {
		report.Status = StatusAIAssisted
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("report created", "report_id", report.ID, "status", report.Status)
	return report, nil
}

// Get fetches one report.
func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionRead, access.Context{"report_id": id}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial mutation. Status changes run through the state
// machine; patching to LOCKED is rejected here because sealing has its own
// path with a separate grant.
func (s *Service) Update(ctx context.Context, actor access.Principal, id string, patch Patch) (*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionUpdate, access.Context{"report_id": id}); err != nil {
		return nil, err
	}

	m := s.lockFor(id)
	m.Lock()
	defer m.Unlock()

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == StatusLocked {
		s.conflict(id)
		return nil, ErrLockConflict
	}

	if patch.Status != nil {
		next := *patch.Status
		if next == StatusLocked {
			return nil, validationError("status cannot be patched to LOCKED")
		}
		if !report.Status.CanTransitionTo(next) {
			return nil, &TransitionError{From: report.Status, To: next}
		}
		if next == StatusDoctorApproved {
			now := time.Now().UTC()
			report.ApprovedAt = &now
		}
		report.Status = next
	}
	if patch.Content != nil {
		report.Content = *patch.Content
	}
	if patch.CouncilDraft != nil {
		report.CouncilDraft = patch.CouncilDraft
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Lock seals a DOCTOR_APPROVED report. The id is written to the durable
// locked set before the status flips; if that write fails the report stays
// approved and the caller gets the error. Losers of a concurrent race on
// the same id get ErrLockConflict.
func (s *Service) Lock(ctx context.Context, actor access.Principal, id string) (*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionLock, access.Context{"report_id": id}); err != nil {
		return nil, err
	}

	m := s.lockFor(id)
	m.Lock()
	defer m.Unlock()

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == StatusLocked {
		s.conflict(id)
		return nil, ErrLockConflict
	}
	if !report.Status.CanTransitionTo(StatusLocked) {
		return nil, &TransitionError{From: report.Status, To: StatusLocked}
	}

	if err := s.locked.Add(ctx, id); err != nil {
		return nil, fmt.Errorf("reports: durable lock write failed: %w", err)
	}

	report.Status = StatusLocked
	if err := s.repo.Update(ctx, report); err != nil {
		// The durable set already holds the id, so reads still treat the
		// report as sealed.
		s.logger.Error("status flip failed after durable lock write", "report_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("report locked", "report_id", id, "actor", actor.ID)
	return report, nil
}

// ListActive returns reports still open for mutation. A report counts as
// locked if either its status or the durable set says so; after a restart
// the set is the authority.
func (s *Service) ListActive(ctx context.Context, actor access.Principal) ([]*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionRead, nil); err != nil {
		return nil, err
	}

	lockedIDs, err := s.lockedIndex(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Report, 0, len(all))
	for _, r := range all {
		if r.Status == StatusLocked || lockedIDs[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListHistory returns every report, sealed ones included.
func (s *Service) ListHistory(ctx context.Context, actor access.Principal) ([]*Report, error) {
	if err := s.gate.Require(ctx, actor, access.ResourceReports, access.ActionRead, nil); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// IsLocked consults both the stored status and the durable set.
func (s *Service) IsLocked(ctx context.Context, id string) (bool, error) {
	sealed, err := s.locked.Contains(ctx, id)
	if err != nil {
		return false, err
	}
	if sealed {
		return true, nil
	}
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return report.Status == StatusLocked, nil
}

func (s *Service) lockedIndex(ctx context.Context) (map[string]bool, error) {
	ids, err := s.locked.IDs(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]bool, len(ids))
	for _, id := range ids {
		index[id] = true
	}
	return index, nil
}

func (s *Service) conflict(id string) {
	if s.observer != nil {
		s.observer.ObserveLockConflict()
	}
	s.logger.Warn("mutation rejected on locked report", "report_id", id)
}
