// Package store caches completed analyses so re-invoking the engine
// for the same input+config pair is a no-op returning the cached
// result (at-most-once computation; recomputation is wasteful but not
// unsafe).
//
// Two backends: MemoryStore for single-process use and SQLiteStore
// when the cache should survive restarts. Both expire entries by TTL.
package store

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a cached analysis stays valid.
const DefaultTTL = 1 * time.Hour

// Store is the cache interface. Keys are content hashes of
// input+config; values are serialized analyses.
type Store interface {
	// Get retrieves a value if present and unexpired.
	Get(key string) (string, bool)

	// Set stores a value with the store's TTL.
	Set(key, value string) error

	// Delete removes a value.
	Delete(key string) error

	// Close cleans up resources.
	Close() error
}

// MemoryStore is a TTL-bound in-memory Store.
type MemoryStore struct {
	data     map[string]entry
	mu       sync.RWMutex
	ttl      time.Duration
	stopChan chan struct{}
	stopped  bool
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl gets
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		data:     make(map[string]entry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Get retrieves a value if it exists and hasn't expired.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[key]
	if !exists || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

// Set stores a value with the configured TTL.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.data[key] = entry{value: value, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Delete removes a value.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Close stops the cleanup goroutine and clears data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
		s.data = nil
	}
	return nil
}

// cleanup periodically removes expired entries.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.stopped {
				now := time.Now()
				for key, e := range s.data {
					if now.After(e.expiresAt) {
						delete(s.data, key)
					}
				}
			}
			s.mu.Unlock()
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
