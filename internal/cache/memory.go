package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one cached value with its expiry.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// isExpiredAt reports whether the entry has expired at t.
func (e *memoryEntry) isExpiredAt(t time.Time) bool {
	return !t.Before(e.expiresAt)
}

// MemoryStore is a process-local implementation of the Store interface.
// Expired entries are invisible to readers immediately and reclaimed by the
// periodic sweeper.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*memoryEntry
	defaultTTL time.Duration
}

// MemoryStoreOption is a function that configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithDefaultTTL sets the TTL used when Set is called with a non-positive ttl.
func WithDefaultTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.defaultTTL = ttl
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		items:      make(map[string]*memoryEntry),
		defaultTTL: 1 * time.Hour,
	}

	for _, option := range options {
		option(store)
	}

	return store
}

// Get retrieves a value by key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[key]
	if !ok || entry.isExpiredAt(time.Now()) {
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value under key with the given time-to-live.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = &memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Sweep removes all expired entries and returns how many were reclaimed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range s.items {
		if entry.isExpiredAt(now) {
			delete(s.items, key)
			removed++
		}
	}

	return removed
}

// StartSweeper reclaims expired entries every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
