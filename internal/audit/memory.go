package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/pkg/logging"
)

// Archiver receives protected entries before they are evicted from the
// bounded in-memory trail.
type Archiver interface {
	ArchiveEntry(ctx context.Context, e Entry) error
}

// MemoryTrail keeps the newest entries in a FIFO ring bounded by
// maxEntries. Entries for protected actions (lock, approve) are never
// evicted silently: they are archived first, or retained past the cap when
// no archiver is configured.
type MemoryTrail struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	archiver   Archiver
	logger     *logging.Logger
}

// NewMemoryTrail builds a bounded in-memory trail. maxEntries <= 0 means
// unbounded.
func NewMemoryTrail(maxEntries int, archiver Archiver, logger *logging.Logger) *MemoryTrail {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryTrail{
		maxEntries: maxEntries,
		archiver:   archiver,
		logger:     logger.Component("audit"),
	}
}

// Append records an entry, evicting the oldest evictable entry once the
// cap is exceeded.
func (t *MemoryTrail) Append(ctx context.Context, e Entry) error {
	e = normalize(e)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, e)
	if t.maxEntries <= 0 || len(t.entries) <= t.maxEntries {
		return nil
	}

	for i, candidate := range t.entries {
		if !Protected(candidate) {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return nil
		}
		if t.archiver == nil {
			continue
		}
		if err := t.archiver.ArchiveEntry(ctx, candidate); err != nil {
			return fmt.Errorf("audit: archive before eviction: %w", err)
		}
		t.logger.Info("archived protected audit entry before eviction",
			"entry_id", candidate.ID,
			"action", candidate.Action,
		)
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
		return nil
	}

	// Every stored entry is protected and no archiver is configured; retain
	// past the cap rather than dropping compliance-critical records.
	t.logger.Warn("audit trail over capacity, retaining protected entries",
		"size", len(t.entries),
		"max", t.maxEntries,
	)
	return nil
}

// RecordDecision appends an access decision as an audit entry.
func (t *MemoryTrail) RecordDecision(ctx context.Context, d access.Decision) error {
	return t.Append(ctx, entryFromDecision(d))
}

// Query returns entries matching the filter, newest first. Reading the
// trail is itself a privileged operation gated through the access engine.
func (t *MemoryTrail) Query(ctx context.Context, authz Authorizer, actor access.Principal, f Filter) ([]Entry, error) {
	if authz == nil {
		return nil, fmt.Errorf("audit: authorizer is required")
	}
	if err := authz.Require(ctx, actor, access.ResourceAudit, access.ActionQuery, nil); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Entry
	for i := len(t.entries) - 1; i >= 0; i-- {
		if !f.Matches(t.entries[i]) {
			continue
		}
		out = append(out, t.entries[i])
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Len reports the stored entry count.
func (t *MemoryTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
