package access

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grantor/pkg/domain"
)

// PostgresStore persists access records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed access store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *Access) error {
	actions := make([]string, len(a.Actions))
	for i, action := range a.Actions {
		actions[i] = string(action)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accesses (id, grant_id, type, actions, identifier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(a.ID), uuid.UUID(a.GrantID), string(a.Type), pq.Array(actions), a.Identifier, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create access: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByGrant(ctx context.Context, grantID domain.GrantID) ([]*Access, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grant_id, type, actions, identifier, created_at
		FROM accesses WHERE grant_id = $1
		ORDER BY created_at`,
		uuid.UUID(grantID),
	)
	if err != nil {
		return nil, fmt.Errorf("list accesses: %w", err)
	}
	defer rows.Close()

	var out []*Access
	for rows.Next() {
		var (
			a       Access
			id      uuid.UUID
			gid     uuid.UUID
			typ     string
			actions pq.StringArray
		)
		if err := rows.Scan(&id, &gid, &typ, &actions, &a.Identifier, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access: %w", err)
		}
		a.ID = domain.AccessID(id)
		a.GrantID = domain.GrantID(gid)
		a.Type = AccessType(typ)
		a.Actions = make([]AccessAction, len(actions))
		for i, action := range actions {
			a.Actions[i] = AccessAction(action)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accesses: %w", err)
	}
	return out, nil
}
