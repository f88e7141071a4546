package reports

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/carelink/clinical-core/pkg/logging"
)

// LockedSet is the durable set of sealed report ids. An id is added
// synchronously before a lock call returns success and must survive
// process restarts.
type LockedSet interface {
	Add(ctx context.Context, id string) error
	Contains(ctx context.Context, id string) (bool, error)
	IDs(ctx context.Context) ([]string, error)
}

const lockedSetKey = "reports:locked"

// RedisLockedSet keeps locked ids in a Redis set.
type RedisLockedSet struct {
	client *redis.Client
}

// NewRedisLockedSet builds the Redis-backed set.
func NewRedisLockedSet(client *redis.Client) *RedisLockedSet {
	if client == nil {
		panic("reports: redis client required")
	}
	return &RedisLockedSet{client: client}
}

var _ LockedSet = (*RedisLockedSet)(nil)

func (s *RedisLockedSet) Add(ctx context.Context, id string) error {
	if err := s.client.SAdd(ctx, lockedSetKey, id).Err(); err != nil {
		return fmt.Errorf("reports: redis sadd: %w", err)
	}
	return nil
}

func (s *RedisLockedSet) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, lockedSetKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("reports: redis sismember: %w", err)
	}
	return ok, nil
}

func (s *RedisLockedSet) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, lockedSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reports: redis smembers: %w", err)
	}
	return ids, nil
}

// WALLockedSet is an append-only journal of locked ids, one per line,
// fsynced on every Add and replayed at open. It is the second write path
// guarding against loss of the primary set.
type WALLockedSet struct {
	mu   sync.Mutex
	path string
	file *os.File
	ids  map[string]bool
}

// OpenWALLockedSet replays the journal at path, creating it if absent.
func OpenWALLockedSet(path string) (*WALLockedSet, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("reports: open wal: %w", err)
	}

	ids := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = true
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reports: replay wal: %w", err)
	}

	return &WALLockedSet{path: path, file: file, ids: ids}, nil
}

var _ LockedSet = (*WALLockedSet)(nil)

func (s *WALLockedSet) Add(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[id] {
		return nil
	}
	if _, err := s.file.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("reports: wal append: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("reports: wal sync: %w", err)
	}
	s.ids[id] = true
	return nil
}

func (s *WALLockedSet) Contains(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id], nil
}

func (s *WALLockedSet) IDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

// Close releases the journal file.
func (s *WALLockedSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// MemoryLockedSet is a process-local set for tests and single-node
// development.
type MemoryLockedSet struct {
	mu  sync.RWMutex
	ids map[string]bool
}

func NewMemoryLockedSet() *MemoryLockedSet {
	return &MemoryLockedSet{ids: make(map[string]bool)}
}

var _ LockedSet = (*MemoryLockedSet)(nil)

func (s *MemoryLockedSet) Add(ctx context.Context, id string) error {
	s.mu.Lock()
	s.ids[id] = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryLockedSet) Contains(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ids[id], nil
}

func (s *MemoryLockedSet) IDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

// DualLockedSet writes every id to two independent stores and takes the
// union on read, so a partial write on one path never loses a seal.
type DualLockedSet struct {
	primary   LockedSet
	secondary LockedSet
	logger    *logging.Logger
}

// NewDualLockedSet pairs the primary durable set with a second write path.
func NewDualLockedSet(primary, secondary LockedSet, logger *logging.Logger) *DualLockedSet {
	if primary == nil || secondary == nil {
		panic("reports: both locked sets required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DualLockedSet{primary: primary, secondary: secondary, logger: logger.Component("locked-set")}
}

var _ LockedSet = (*DualLockedSet)(nil)

// Add writes both paths synchronously. Failure of the primary fails the
// call; failure of the secondary alone is logged and tolerated because the
// union read still sees the id.
func (s *DualLockedSet) Add(ctx context.Context, id string) error {
	primaryErr := s.primary.Add(ctx, id)
	secondaryErr := s.secondary.Add(ctx, id)

	if primaryErr != nil && secondaryErr != nil {
		return fmt.Errorf("reports: locked set dual write failed: %w", primaryErr)
	}
	if primaryErr != nil {
		s.logger.Error("primary locked set write failed, secondary holds the id", "report_id", id, "error", primaryErr)
		return nil
	}
	if secondaryErr != nil {
		s.logger.Warn("secondary locked set write failed", "report_id", id, "error", secondaryErr)
	}
	return nil
}

func (s *DualLockedSet) Contains(ctx context.Context, id string) (bool, error) {
	inPrimary, primaryErr := s.primary.Contains(ctx, id)
	if primaryErr == nil && inPrimary {
		return true, nil
	}
	inSecondary, secondaryErr := s.secondary.Contains(ctx, id)
	if secondaryErr == nil {
		return inSecondary || inPrimary, nil
	}
	if primaryErr != nil {
		return false, primaryErr
	}
	return inPrimary, nil
}

func (s *DualLockedSet) IDs(ctx context.Context) ([]string, error) {
	union := make(map[string]bool)

	primaryIDs, primaryErr := s.primary.IDs(ctx)
	secondaryIDs, secondaryErr := s.secondary.IDs(ctx)
	if primaryErr != nil && secondaryErr != nil {
		return nil, primaryErr
	}
	for _, id := range primaryIDs {
		union[id] = true
	}
	for _, id := range secondaryIDs {
		union[id] = true
	}

	out := make([]string, 0, len(union))
	for id := range union {
		out = append(out, id)
	}
	return out, nil
}
