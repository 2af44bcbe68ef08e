// Package db provides PostgreSQL access for the application ledger and run history.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables used by apply-agent if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS applications (
		signature        TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		company          TEXT NOT NULL,
		url              TEXT NOT NULL,
		application_type TEXT NOT NULL CHECK (application_type IN ('easy_apply', 'company_site')),
		applied_at       TIMESTAMPTZ NOT NULL,
		seq              BIGSERIAL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id          UUID PRIMARY KEY,
		status      TEXT NOT NULL,
		keywords    TEXT[] NOT NULL DEFAULT '{}',
		attempted   INTEGER NOT NULL DEFAULT 0,
		applied     INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0,
		started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS run_outcomes (
		id               BIGSERIAL PRIMARY KEY,
		run_id           UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		title            TEXT NOT NULL,
		company          TEXT NOT NULL,
		url              TEXT NOT NULL,
		status           TEXT NOT NULL,
		application_type TEXT,
		reason           TEXT,
		ambiguous        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
