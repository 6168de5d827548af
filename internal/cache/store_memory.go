package cache

import (
	"context"
	"sync"
	"time"

	"creditline/internal/domain"
)

// InMemoryStore is the default single-process cache. Expired entries are
// dropped lazily on read and swept opportunistically on write.
type InMemoryStore struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[domain.DNI]memoryEntry
}

type memoryEntry struct {
	result    domain.QueryResult
	expiresAt time.Time
}

// NewInMemoryStore builds a memory-backed store with the given retention.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryStore{
		ttl:     ttl,
		entries: make(map[domain.DNI]memoryEntry),
	}
}

// Find returns the cached result, or ErrNotFound on miss or expiry.
func (s *InMemoryStore) Find(_ context.Context, dni domain.DNI) (*domain.QueryResult, error) {
	s.mu.RLock()
	entry, ok := s.entries[dni]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, dni)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	result := entry.result
	return &result, nil
}

// Save stores the result and sweeps any other expired entries.
func (s *InMemoryStore) Save(_ context.Context, result domain.QueryResult) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[domain.DNI(result.DNI)] = memoryEntry{
		result:    result,
		expiresAt: now.Add(s.ttl),
	}
	return nil
}
