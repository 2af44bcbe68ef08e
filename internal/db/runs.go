package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRun inserts a run in the running state.
func (db *DB) CreateRun(ctx context.Context, id uuid.UUID, keywords []string) error {
	if keywords == nil {
		keywords = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO runs (id, status, keywords) VALUES ($1, $2, $3)`,
		id, RunStatusRunning, keywords,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// RecordOutcome appends one processed job to a run.
func (db *DB) RecordOutcome(ctx context.Context, runID uuid.UUID, o OutcomeRow) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_outcomes (run_id, title, company, url, status, application_type, reason, ambiguous)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)`,
		runID, o.Title, o.Company, o.URL, o.Status, o.ApplicationType, o.Reason, o.Ambiguous,
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", o.Title, err)
	}
	return nil
}

// CompleteRun stores the final counters and status of a run.
func (db *DB) CompleteRun(ctx context.Context, id uuid.UUID, status string, totals RunTotals) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE runs
		 SET status = $1, attempted = $2, applied = $3, skipped = $4, failed = $5, finished_at = NOW()
		 WHERE id = $6`,
		status, totals.Attempted, totals.Applied, totals.Skipped, totals.Failed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when it does not exist.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, status, keywords, attempted, applied, skipped, failed, started_at, finished_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.Status, &r.Keywords, &r.Attempted, &r.Applied, &r.Skipped, &r.Failed, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}
