package patients

import (
	"context"
	"sync"
	"time"
)

// TokenRecord is the stored binding of a token to an encrypted payload
// and its assigned provider.
type TokenRecord struct {
	Token      string    `json:"token" dynamodbav:"token"`
	Ciphertext string    `json:"ciphertext" dynamodbav:"ciphertext"`
	Provider   string    `json:"provider" dynamodbav:"provider"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// TokenStore persists token records. Put must refuse to overwrite an
// existing token; tokens are bound once and never reused.
type TokenStore interface {
	Put(ctx context.Context, rec TokenRecord) error
	Get(ctx context.Context, token string) (TokenRecord, error)
}

// MemoryTokenStore keeps records in memory for tests and single-node
// development.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	records map[string]TokenRecord
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{records: make(map[string]TokenRecord)}
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func (s *MemoryTokenStore) Put(ctx context.Context, rec TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Token]; ok {
		return ErrTokenExists
	}
	s.records[rec.Token] = rec
	return nil
}

func (s *MemoryTokenStore) Get(ctx context.Context, token string) (TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		return TokenRecord{}, ErrTokenNotFound
	}
	return rec, nil
}
