package metacache

import (
	"errors"
	"sync"
	"time"
)

// ErrCorrupt is returned by stores when persisted data cannot be decoded.
// The cache treats it as a miss (fail open, refetch) and logs it.
var ErrCorrupt = errors.New("corrupt cache entry")

// Entry is one cached metadata record. Entries are owned by the cache:
// once written to a store they are never mutated, a refresh writes a new
// entry under the same key.
type Entry struct {
	Key          string        `json:"key"`
	Value        Metadata      `json:"value"`
	FetchedAt    time.Time     `json:"fetched_at"`
	TTL          time.Duration `json:"ttl"`
	FailureCount uint8         `json:"failure_count"`
}

// Expired reports whether the entry's effective TTL has elapsed. factor
// scales the TTL down (degraded mode passes a value below 1).
func (e *Entry) Expired(now time.Time, factor float64) bool {
	effective := time.Duration(float64(e.TTL) * factor)
	return now.Sub(e.FetchedAt) >= effective
}

// Store is the backing key-value contract the cache is written against.
// Read returns (nil, nil) on a clean miss.
type Store interface {
	Read(key string) (*Entry, error)
	Write(entry *Entry) error
	Delete(key string) error
	Close() error
}

// StatsProvider is implemented by stores that can report cache statistics.
type StatsProvider interface {
	Stats() (map[string]any, error)
}

// CleanupProvider is implemented by stores that can drop expired entries.
type CleanupProvider interface {
	CleanupExpired() error
}

// MemoryStore is the in-process Store, suitable for tests and for callers
// that do not need persistence across runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Read implements Store.
func (s *MemoryStore) Read(key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key], nil
}

// Write implements Store.
func (s *MemoryStore) Write(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
