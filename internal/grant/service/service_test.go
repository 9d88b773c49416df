package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grantor/internal/grant"
	"grantor/pkg/domain"
	pkgerrors "grantor/pkg/errors"
)

type AdminServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *grant.InMemoryStore
	service *Service
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = grant.NewInMemoryStore()
	s.service = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func (s *AdminServiceSuite) seedGrant(state grant.GrantState) *grant.Grant {
	now := time.Now()
	g := &grant.Grant{
		ID:        domain.NewGrantID(),
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.Create(s.ctx, g))
	return g
}

func (s *AdminServiceSuite) assertNotFound(err error) {
	s.Require().Error(err)
	s.Equal(http.StatusNotFound, pkgerrors.StatusOf(err))
	s.Equal(pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func (s *AdminServiceSuite) TestRevoke() {
	s.Run("revokes a pending grant", func() {
		g := s.seedGrant(grant.GrantStatePending)

		revoked, err := s.service.Revoke(s.ctx, g.ID.String())
		s.Require().NoError(err)
		s.Equal(grant.GrantStateFinalized, revoked.State)
		s.Equal(grant.FinalizationRevoked, revoked.FinalizationReason)

		stored, err := s.store.FindByID(s.ctx, g.ID)
		s.Require().NoError(err)
		s.Equal(grant.GrantStateFinalized, stored.State)
	})

	s.Run("revokes an approved grant", func() {
		g := s.seedGrant(grant.GrantStateApproved)
		revoked, err := s.service.Revoke(s.ctx, g.ID.String())
		s.Require().NoError(err)
		s.Equal(grant.FinalizationRevoked, revoked.FinalizationReason)
	})

	s.Run("repeat revocation looks like a missing grant", func() {
		g := s.seedGrant(grant.GrantStatePending)
		_, err := s.service.Revoke(s.ctx, g.ID.String())
		s.Require().NoError(err)

		_, err = s.service.Revoke(s.ctx, g.ID.String())
		s.assertNotFound(err)
	})

	s.Run("unknown grant", func() {
		_, err := s.service.Revoke(s.ctx, domain.NewGrantID().String())
		s.assertNotFound(err)
	})

	s.Run("malformed id", func() {
		_, err := s.service.Revoke(s.ctx, "not-a-uuid")
		s.assertNotFound(err)
	})
}

func (s *AdminServiceSuite) TestGet() {
	s.Run("returns the stored grant", func() {
		g := s.seedGrant(grant.GrantStateApproved)
		got, err := s.service.Get(s.ctx, g.ID.String())
		s.Require().NoError(err)
		s.Equal(g.ID, got.ID)
		s.Equal(grant.GrantStateApproved, got.State)
	})

	s.Run("unknown grant", func() {
		_, err := s.service.Get(s.ctx, domain.NewGrantID().String())
		s.assertNotFound(err)
	})

	s.Run("malformed id", func() {
		_, err := s.service.Get(s.ctx, "nope")
		s.assertNotFound(err)
	})
}
