package grant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

// InMemoryStore stores grants in memory for tests/dev. Transitions run under
// the store lock so they are atomic with respect to concurrent callers.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[domain.GrantID]*Grant
}

// NewInMemoryStore constructs an empty in-memory grant store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[domain.GrantID]*Grant)}
}

func (s *InMemoryStore) Create(_ context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[g.ID]; ok {
		return fmt.Errorf("grant %s: %w", g.ID, sentinel.ErrConflict)
	}
	cp := *g
	s.grants[g.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.GrantID) (*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (s *InMemoryStore) Approve(_ context.Context, id domain.GrantID) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	if err := g.Approve(time.Now()); err != nil {
		return nil, err
	}
	cp := *g
	return &cp, nil
}

func (s *InMemoryStore) Finalize(_ context.Context, id domain.GrantID, reason GrantFinalization) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	if err := g.Finalize(reason, time.Now()); err != nil {
		return nil, err
	}
	cp := *g
	return &cp, nil
}
