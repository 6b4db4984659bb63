package cache

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// MemoryStore is an in-process Store used by tests and local tooling.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CachedContextEntry
	now     Clock
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A nil clock uses SystemClock.
func NewMemoryStore(now Clock) *MemoryStore {
	if now == nil {
		now = SystemClock
	}
	return &MemoryStore{entries: make(map[string]domain.CachedContextEntry), now: now}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, entry *domain.CachedContextEntry) error {
	cp := *entry
	cp.Payload = append([]byte(nil), entry.Payload...)

	s.mu.Lock()
	s.entries[entry.Hash] = cp
	s.mu.Unlock()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, hash string) (*domain.CachedContextEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[hash]
	s.mu.RUnlock()

	if !ok || entry.IsExpired(s.now()) {
		return nil, ErrMiss
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return &entry, nil
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, entry := range s.entries {
		if entry.IsExpired(now) {
			delete(s.entries, hash)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
