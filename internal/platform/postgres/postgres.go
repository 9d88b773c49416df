package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
// Returns nil if the URL is empty (Postgres not configured; in-memory stores
// are used instead).
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate creates the tables the stores expect. Schema evolution beyond
// initial creation is handled by deployment tooling, not this server.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS grants (
		id UUID PRIMARY KEY,
		state TEXT NOT NULL,
		finalization_reason TEXT,
		finish_uri TEXT,
		client_nonce TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id UUID PRIMARY KEY,
		grant_id UUID NOT NULL REFERENCES grants (id),
		nonce TEXT NOT NULL,
		ref TEXT,
		state TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS interactions_grant_id_idx ON interactions (grant_id)`,
	`CREATE TABLE IF NOT EXISTS accesses (
		id UUID PRIMARY KEY,
		grant_id UUID NOT NULL REFERENCES grants (id),
		type TEXT NOT NULL,
		actions TEXT[] NOT NULL,
		identifier TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS accesses_grant_id_idx ON accesses (grant_id)`,
}
