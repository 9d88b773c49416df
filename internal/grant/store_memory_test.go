package grant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

type GrantStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestGrantStoreSuite(t *testing.T) {
	suite.Run(t, new(GrantStoreSuite))
}

func (s *GrantStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *GrantStoreSuite) TestLookup() {
	s.Run("returns stored grant when found", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))

		found, err := s.store.FindByID(context.Background(), g.ID)
		s.Require().NoError(err)
		s.Equal(g, found)
	})

	s.Run("returns ErrNotFound when grant does not exist", func() {
		_, err := s.store.FindByID(context.Background(), domain.NewGrantID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ids", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))
		s.Require().ErrorIs(s.store.Create(context.Background(), g), sentinel.ErrConflict)
	})

	s.Run("mutating a returned grant does not touch the stored copy", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))

		found, err := s.store.FindByID(context.Background(), g.ID)
		s.Require().NoError(err)
		found.State = GrantStateFinalized

		again, err := s.store.FindByID(context.Background(), g.ID)
		s.Require().NoError(err)
		s.Equal(GrantStatePending, again.State)
	})
}

func (s *GrantStoreSuite) TestTransitions() {
	s.Run("approve transitions pending to approved", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))

		updated, err := s.store.Approve(context.Background(), g.ID)
		s.Require().NoError(err)
		s.Equal(GrantStateApproved, updated.State)
	})

	s.Run("finalize on a finalized grant fails", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))

		_, err := s.store.Finalize(context.Background(), g.ID, FinalizationRevoked)
		s.Require().NoError(err)

		_, err = s.store.Finalize(context.Background(), g.ID, FinalizationRevoked)
		s.Require().ErrorIs(err, sentinel.ErrFinalized)
	})

	s.Run("approve on a finalized grant fails", func() {
		g := newPendingGrant()
		s.Require().NoError(s.store.Create(context.Background(), g))

		_, err := s.store.Finalize(context.Background(), g.ID, FinalizationRevoked)
		s.Require().NoError(err)

		_, err = s.store.Approve(context.Background(), g.ID)
		s.Require().ErrorIs(err, sentinel.ErrFinalized)
	})
}

// TestConcurrentFinalize verifies the compare-and-set contract: of N
// concurrent finalizers exactly one wins, the rest observe the terminal state.
func (s *GrantStoreSuite) TestConcurrentFinalize() {
	g := newPendingGrant()
	s.Require().NoError(s.store.Create(context.Background(), g))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, finalizedCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Finalize(context.Background(), g.ID, FinalizationRevoked)
			switch {
			case err == nil:
				successCount.Add(1)
			default:
				s.ErrorIs(err, sentinel.ErrFinalized)
				finalizedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), finalizedCount.Load())

	stored, err := s.store.FindByID(context.Background(), g.ID)
	s.Require().NoError(err)
	s.Equal(GrantStateFinalized, stored.State)
	s.Equal(FinalizationRevoked, stored.FinalizationReason)
}
