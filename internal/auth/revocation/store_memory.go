package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps revocation entries in a mutex-guarded map. It is the
// reference implementation for tests and single-instance dev deployments;
// distributed deployments use RedisStore or PostgresStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   Clock
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithMemoryClock sets the clock used by IsRevoked.
func WithMemoryClock(clock Clock) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemoryStore constructs an empty in-memory revocation list.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record adds the token until expiresAt. Recording the same token again is a
// no-op: the first entry already carries the token's embedded expiry and
// entries never outlive it.
func (s *InMemoryStore) Record(_ context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[token]; exists {
		return nil
	}
	s.entries[token] = expiresAt
	tokensRevoked.Inc()
	return nil
}

// IsRevoked reports whether the token is on the list and not yet past its
// entry expiry. Readers never observe a partially written entry.
func (s *InMemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.entries[token]
	if !ok {
		return false, nil
	}
	return s.clock().Before(expiresAt), nil
}

// PurgeExpired removes every entry with expiresAt <= now. Lookups racing a
// purge may or may not see an about-to-expire entry; either answer is correct
// because the codec's expiry check already rejects such tokens.
func (s *InMemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for token, expiresAt := range s.entries {
		if !expiresAt.After(now) {
			delete(s.entries, token)
			purged++
		}
	}
	if purged > 0 {
		entriesPurged.Add(float64(purged))
	}
	return purged, nil
}

// Len reports the number of live entries. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
