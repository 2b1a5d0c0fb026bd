package token

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore is the in-process fallback [Store] used when no Redis client is
// configured. Entries honor the save TTL; expiry is enforced lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sourceID string, record Record, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sourceID] = memoryEntry{record: record, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sourceID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sourceID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, sourceID)
		return Record{}, ErrNotFound
	}
	return entry.record, nil
}

func (s *MemoryStore) Delete(_ context.Context, sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[sourceID]; !ok {
		return false, nil
	}
	delete(s.entries, sourceID)
	return true, nil
}
