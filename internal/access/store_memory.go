package access

import (
	"context"
	"sync"

	"grantor/pkg/domain"
)

// InMemoryStore stores access records in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	byGrant map[domain.GrantID][]*Access
}

// NewInMemoryStore constructs an empty in-memory access store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byGrant: make(map[domain.GrantID][]*Access)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Access) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.byGrant[a.GrantID] = append(s.byGrant[a.GrantID], &cp)
	return nil
}

func (s *InMemoryStore) ListByGrant(_ context.Context, grantID domain.GrantID) ([]*Access, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.byGrant[grantID]
	out := make([]*Access, 0, len(records))
	for _, a := range records {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
