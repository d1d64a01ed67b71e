// Package cache provides process-local memoization of similarity and
// resolver lookups, keyed by normalized query, with a fixed time-to-live.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

type entry struct {
	data     any
	storedAt time.Time
}

// Store is an in-memory TTL cache. Entries are never evicted except by
// overwrite; unbounded growth within a process lifetime is accepted. The
// clock is injectable so tests can simulate expiry.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// NewStore creates a Store. A zero ttl falls back to DefaultTTL; a nil now
// falls back to time.Now.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false when the key is absent or
// its entry has outlived the TTL.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) >= s.ttl {
		return nil, false
	}
	return e.data, true
}

// Set stores value under key, overwriting any previous entry.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{data: value, storedAt: s.now()}
}

// Len reports the number of entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
