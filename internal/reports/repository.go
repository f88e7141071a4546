package reports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/clinical-core/internal/vault"
)

// Repository is the persistence boundary for reports. Implementations
// encrypt the content field at rest.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	Update(ctx context.Context, r *Report) error
	List(ctx context.Context) ([]*Report, error)
}

// MemoryRepository stores reports in memory. Content is held encrypted so
// the at-rest contract matches the relational implementation.
type MemoryRepository struct {
	mu      sync.RWMutex
	reports map[string]*Report
	cipher  *vault.Cipher
}

// NewMemoryRepository creates an in-memory repository. The cipher is
// required; sensitive fields never sit in the store as plaintext.
func NewMemoryRepository(cipher *vault.Cipher) *MemoryRepository {
	if cipher == nil {
		panic("reports: cipher required")
	}
	return &MemoryRepository{
		reports: make(map[string]*Report),
		cipher:  cipher,
	}
}

var _ Repository = (*MemoryRepository)(nil)

// Create inserts a new report.
func (r *MemoryRepository) Create(ctx context.Context, report *Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	sealed := *report
	encrypted, err := r.cipher.Encrypt(report.Content)
	if err != nil {
		return err
	}
	sealed.Content = encrypted

	r.mu.Lock()
	r.reports[sealed.ID] = &sealed
	r.mu.Unlock()
	return nil
}

// Get retrieves a report by id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*Report, error) {
	r.mu.RLock()
	stored, ok := r.reports[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrReportNotFound
	}
	return r.open(stored)
}

// Update overwrites the stored report.
func (r *MemoryRepository) Update(ctx context.Context, report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[report.ID]; !ok {
		return ErrReportNotFound
	}

	report.UpdatedAt = time.Now().UTC()
	sealed := *report
	encrypted, err := r.cipher.Encrypt(report.Content)
	if err != nil {
		return err
	}
	sealed.Content = encrypted
	r.reports[report.ID] = &sealed
	return nil
}

// List returns every stored report.
func (r *MemoryRepository) List(ctx context.Context) ([]*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Report, 0, len(r.reports))
	for _, stored := range r.reports {
		opened, err := r.open(stored)
		if err != nil {
			return nil, err
		}
		out = append(out, opened)
	}
	return out, nil
}

func (r *MemoryRepository) open(stored *Report) (*Report, error) {
	opened := *stored
	content, err := r.cipher.Decrypt(stored.Content)
	if err != nil {
		return nil, err
	}
	opened.Content = content
	return &opened, nil
}
