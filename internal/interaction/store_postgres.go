package interaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grantor/pkg/domain"
	"grantor/pkg/platform/nonce"
	"grantor/pkg/platform/sentinel"
)

// PostgresStore persists interactions in PostgreSQL. Decisions are single
// conditional UPDATE statements gated on state = 'pending', so exactly one of
// two concurrent deciders wins.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed interaction store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const interactionColumns = `id, grant_id, nonce, COALESCE(ref, ''), state, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, i *Interaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, grant_id, nonce, ref, state, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		uuid.UUID(i.ID), uuid.UUID(i.GrantID), i.Nonce, i.Ref, string(i.State), i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("interaction %s: %w", i.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create interaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.InteractionID) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = $1`,
		uuid.UUID(id),
	)
	return scanInteraction(row, id)
}

func (s *PostgresStore) FindByIDAndNonce(ctx context.Context, id domain.InteractionID, nonceVal string) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = $1 AND nonce = $2`,
		uuid.UUID(id), nonceVal,
	)
	return scanInteraction(row, id)
}

func (s *PostgresStore) Approve(ctx context.Context, id domain.InteractionID) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE interactions SET state = 'approved', ref = $2, updated_at = $3
		WHERE id = $1 AND state = 'pending'
		RETURNING `+interactionColumns,
		uuid.UUID(id), nonce.New(), time.Now(),
	)
	return s.decided(ctx, row, id)
}

func (s *PostgresStore) Deny(ctx context.Context, id domain.InteractionID) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE interactions SET state = 'denied', updated_at = $2
		WHERE id = $1 AND state = 'pending'
		RETURNING `+interactionColumns,
		uuid.UUID(id), time.Now(),
	)
	return s.decided(ctx, row, id)
}

// decided distinguishes a zero-row conditional update between a missing
// interaction and one that has already been decided.
func (s *PostgresStore) decided(ctx context.Context, row rowScanner, id domain.InteractionID) (*Interaction, error) {
	i, err := scanInteraction(row, id)
	if err == nil {
		return i, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}
	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("decide interaction %s: %w", id, sentinel.ErrAlreadyDecided)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner, id domain.InteractionID) (*Interaction, error) {
	var (
		i     Interaction
		rawID uuid.UUID
		gid   uuid.UUID
		state string
	)
	err := row.Scan(&rawID, &gid, &i.Nonce, &i.Ref, &state, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan interaction: %w", err)
	}
	i.ID = domain.InteractionID(rawID)
	i.GrantID = domain.GrantID(gid)
	i.State = InteractionState(state)
	return &i, nil
}
