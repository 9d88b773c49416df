//go:build integration

package interaction_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grantor/internal/grant"
	"grantor/internal/interaction"
	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
	"grantor/pkg/testutil/containers"
)

type InteractionPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	grants   *grant.PostgresStore
	store    *interaction.PostgresStore
}

func TestInteractionPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(InteractionPostgresSuite))
}

func (s *InteractionPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.grants = grant.NewPostgresStore(s.postgres.DB)
	s.store = interaction.NewPostgresStore(s.postgres.DB)
}

func (s *InteractionPostgresSuite) SetupTest() {
	// Truncate in dependency order
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "accesses", "interactions", "grants"))
}

// seed creates the parent grant and a pending interaction under it.
func (s *InteractionPostgresSuite) seed() *interaction.Interaction {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	g := &grant.Grant{
		ID:          domain.NewGrantID(),
		State:       grant.GrantStatePending,
		ClientNonce: "client-nonce",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.grants.Create(ctx, g))

	i := interaction.New(g.ID, now)
	s.Require().NoError(s.store.Create(ctx, i))
	return i
}

func (s *InteractionPostgresSuite) TestRoundTrip() {
	ctx := context.Background()
	i := s.seed()

	found, err := s.store.FindByID(ctx, i.ID)
	s.Require().NoError(err)
	s.Equal(i.ID, found.ID)
	s.Equal(i.GrantID, found.GrantID)
	s.Equal(i.Nonce, found.Nonce)
	s.Equal(interaction.StatePending, found.State)
	s.Empty(found.Ref)

	s.Run("nonce lookup", func() {
		found, err := s.store.FindByIDAndNonce(ctx, i.ID, i.Nonce)
		s.Require().NoError(err)
		s.Equal(i.ID, found.ID)

		_, err = s.store.FindByIDAndNonce(ctx, i.ID, "wrong-nonce")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("missing id", func() {
		_, err := s.store.FindByID(ctx, domain.NewInteractionID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InteractionPostgresSuite) TestDecisions() {
	ctx := context.Background()

	s.Run("approve mints a ref", func() {
		i := s.seed()
		approved, err := s.store.Approve(ctx, i.ID)
		s.Require().NoError(err)
		s.Equal(interaction.StateApproved, approved.State)
		s.NotEmpty(approved.Ref)

		found, err := s.store.FindByID(ctx, i.ID)
		s.Require().NoError(err)
		s.Equal(approved.Ref, found.Ref)
	})

	s.Run("deny records no ref", func() {
		i := s.seed()
		denied, err := s.store.Deny(ctx, i.ID)
		s.Require().NoError(err)
		s.Equal(interaction.StateDenied, denied.State)
		s.Empty(denied.Ref)
	})

	s.Run("second decision fails", func() {
		i := s.seed()
		_, err := s.store.Deny(ctx, i.ID)
		s.Require().NoError(err)

		_, err = s.store.Approve(ctx, i.ID)
		s.ErrorIs(err, sentinel.ErrAlreadyDecided)

		found, err := s.store.FindByID(ctx, i.ID)
		s.Require().NoError(err)
		s.Equal(interaction.StateDenied, found.State)
	})

	s.Run("deciding a missing interaction", func() {
		_, err := s.store.Approve(ctx, domain.NewInteractionID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentDecisions verifies that racing approve/deny calls produce
// exactly one recorded decision; the conditional update on the pending state
// arbitrates.
func (s *InteractionPostgresSuite) TestConcurrentDecisions() {
	ctx := context.Background()
	i := s.seed()

	const goroutines = 20
	var (
		wg      sync.WaitGroup
		decided atomic.Int32
		late    atomic.Int32
	)
	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var err error
			if n%2 == 0 {
				_, err = s.store.Approve(ctx, i.ID)
			} else {
				_, err = s.store.Deny(ctx, i.ID)
			}
			switch {
			case err == nil:
				decided.Add(1)
			default:
				s.ErrorIs(err, sentinel.ErrAlreadyDecided)
				late.Add(1)
			}
		}(n)
	}
	wg.Wait()

	s.Equal(int32(1), decided.Load())
	s.Equal(int32(goroutines-1), late.Load())

	found, err := s.store.FindByID(ctx, i.ID)
	s.Require().NoError(err)
	s.NotEqual(interaction.StatePending, found.State)
}
