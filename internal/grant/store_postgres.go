package grant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

// PostgresStore persists grants in PostgreSQL. State transitions are single
// conditional UPDATE statements; RowsAffected distinguishes a won transition
// from a race lost to a concurrent finalizer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed grant store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, g *Grant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grants (id, state, finalization_reason, finish_uri, client_nonce, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)`,
		uuid.UUID(g.ID), g.State, string(g.FinalizationReason), g.FinishURI, g.ClientNonce, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("grant %s: %w", g.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.GrantID) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, COALESCE(finalization_reason, ''), COALESCE(finish_uri, ''), client_nonce, created_at, updated_at
		FROM grants WHERE id = $1`,
		uuid.UUID(id),
	)
	return scanGrant(row, id)
}

func (s *PostgresStore) Approve(ctx context.Context, id domain.GrantID) (*Grant, error) {
	return s.transition(ctx, id, `
		UPDATE grants SET state = 'approved', updated_at = $2
		WHERE id = $1 AND state IN ('pending', 'approved')`,
		time.Now())
}

func (s *PostgresStore) Finalize(ctx context.Context, id domain.GrantID, reason GrantFinalization) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE grants SET state = 'finalized', finalization_reason = $2, updated_at = $3
		WHERE id = $1 AND state IN ('pending', 'approved')
		RETURNING id, state, COALESCE(finalization_reason, ''), COALESCE(finish_uri, ''), client_nonce, created_at, updated_at`,
		uuid.UUID(id), string(reason), time.Now(),
	)
	g, err := scanGrant(row, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.classifyMiss(ctx, id, "finalize")
		}
		return nil, err
	}
	return g, nil
}

func (s *PostgresStore) transition(ctx context.Context, id domain.GrantID, query string, now time.Time) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, query+`
		RETURNING id, state, COALESCE(finalization_reason, ''), COALESCE(finish_uri, ''), client_nonce, created_at, updated_at`,
		uuid.UUID(id), now,
	)
	g, err := scanGrant(row, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.classifyMiss(ctx, id, "approve")
		}
		return nil, err
	}
	return g, nil
}

// classifyMiss decides whether a zero-row conditional update means the grant
// does not exist or lost the race to a finalizer.
func (s *PostgresStore) classifyMiss(ctx context.Context, id domain.GrantID, op string) error {
	g, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if g.IsFinalized() {
		return fmt.Errorf("%s grant %s: %w", op, id, sentinel.ErrFinalized)
	}
	return fmt.Errorf("%s grant %s: %w", op, id, sentinel.ErrInvalidState)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner, id domain.GrantID) (*Grant, error) {
	var (
		g      Grant
		rawID  uuid.UUID
		state  string
		reason string
	)
	err := row.Scan(&rawID, &state, &reason, &g.FinishURI, &g.ClientNonce, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan grant: %w", err)
	}
	g.ID = domain.GrantID(rawID)
	g.State = GrantState(state)
	g.FinalizationReason = GrantFinalization(reason)
	return &g, nil
}
