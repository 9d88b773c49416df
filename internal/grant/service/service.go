// Package service implements administrative grant operations. Revocation is
// an operator override: it short-circuits the interaction flow and finalizes
// the grant regardless of any pending consent round-trip.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"grantor/internal/grant"
	"grantor/internal/platform/metrics"
	"grantor/pkg/domain"
	pkgerrors "grantor/pkg/errors"
	"grantor/pkg/platform/sentinel"
)

// Store is the slice of the grant store the admin service needs.
type Store interface {
	FindByID(ctx context.Context, id domain.GrantID) (*grant.Grant, error)
	Finalize(ctx context.Context, id domain.GrantID, reason grant.GrantFinalization) (*grant.Grant, error)
}

// Service exposes administrative grant operations.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the admin grant service.
func New(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// Revoke finalizes a pending or approved grant with reason Revoked. A grant
// that is already finalized cannot be revoked again; the 404 does not reveal
// whether the grant was missing or already terminal.
func (s *Service) Revoke(ctx context.Context, rawID string) (*grant.Grant, error) {
	id, err := domain.ParseGrantID(rawID)
	if err != nil {
		return nil, pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown grant")
	}

	g, err := s.store.Finalize(ctx, id, grant.FinalizationRevoked)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrFinalized) {
			return nil, pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown grant")
		}
		s.logger.ErrorContext(ctx, "failed to revoke grant", "grant_id", rawID, "error", err)
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to revoke grant")
	}

	s.metrics.IncGrantFinalized(string(grant.FinalizationRevoked))
	return g, nil
}

// Get looks up a grant for operator inspection.
func (s *Service) Get(ctx context.Context, rawID string) (*grant.Grant, error) {
	id, err := domain.ParseGrantID(rawID)
	if err != nil {
		return nil, pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown grant")
	}
	g, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown grant")
		}
		s.logger.ErrorContext(ctx, "failed to load grant", "grant_id", rawID, "error", err)
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to load grant")
	}
	return g, nil
}
