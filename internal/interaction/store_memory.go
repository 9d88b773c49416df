package interaction

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

// InMemoryStore stores interactions in memory for tests/dev. Decisions run
// under the store lock so they are atomic with respect to concurrent callers.
type InMemoryStore struct {
	mu           sync.RWMutex
	interactions map[domain.InteractionID]*Interaction
}

// NewInMemoryStore constructs an empty in-memory interaction store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{interactions: make(map[domain.InteractionID]*Interaction)}
}

func (s *InMemoryStore) Create(_ context.Context, i *Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interactions[i.ID]; ok {
		return fmt.Errorf("interaction %s: %w", i.ID, sentinel.ErrConflict)
	}
	cp := *i
	s.interactions[i.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.InteractionID) (*Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *i
	return &cp, nil
}

func (s *InMemoryStore) FindByIDAndNonce(_ context.Context, id domain.InteractionID, nonceVal string) (*Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.interactions[id]
	// Constant-time nonce comparison; a wrong nonce must look exactly like
	// a missing interaction.
	if !ok || subtle.ConstantTimeCompare([]byte(i.Nonce), []byte(nonceVal)) != 1 {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *i
	return &cp, nil
}

func (s *InMemoryStore) Approve(_ context.Context, id domain.InteractionID) (*Interaction, error) {
	return s.decide(id, (*Interaction).Approve)
}

func (s *InMemoryStore) Deny(_ context.Context, id domain.InteractionID) (*Interaction, error) {
	return s.decide(id, (*Interaction).Deny)
}

func (s *InMemoryStore) decide(id domain.InteractionID, transition func(*Interaction, time.Time) error) (*Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err := transition(i, time.Now()); err != nil {
		return nil, err
	}
	cp := *i
	return &cp, nil
}
