package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grantor/pkg/platform/sentinel"
)

type memoryEntry struct {
	nonce     string
	expiresAt time.Time
}

// InMemoryStore keeps session bindings in memory for tests and single-node
// deployments. Entries are dropped lazily on read once expired.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *InMemoryStore) Set(_ context.Context, sid, nonceVal string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = memoryEntry{nonce: nonceVal, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sid]
	if !ok {
		return "", fmt.Errorf("session %s: %w", sid, sentinel.ErrNotFound)
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, sid)
		return "", fmt.Errorf("session %s: %w", sid, sentinel.ErrNotFound)
	}
	return entry.nonce, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}
