package db

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/types"
)

// InsertApplication stores a ledger record. It reports false when the signature was
// already present, in which case nothing is written.
func (db *DB) InsertApplication(ctx context.Context, rec types.ApplicationRecord) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO applications (signature, title, company, url, application_type, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (signature) DO NOTHING`,
		rec.Signature, rec.Title, rec.Company, rec.URL, string(rec.ApplicationType), rec.AppliedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert application %s: %w", rec.Signature, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListApplications returns every record in insertion order.
func (db *DB) ListApplications(ctx context.Context) ([]types.ApplicationRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT title, company, url, applied_at, signature, application_type
		 FROM applications ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []types.ApplicationRecord
	for rows.Next() {
		var rec types.ApplicationRecord
		var appType string
		if err := rows.Scan(&rec.Title, &rec.Company, &rec.URL, &rec.AppliedAt, &rec.Signature, &appType); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		rec.ApplicationType = types.ApplicationType(appType)
		rec.AppliedAt = rec.AppliedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return out, nil
}

// HasApplication reports whether a signature is stored.
func (db *DB) HasApplication(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE signature = $1)`, signature,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up application %s: %w", signature, err)
	}
	return exists, nil
}

// DeleteApplication removes a record. Used by tests and manual ledger repair.
func (db *DB) DeleteApplication(ctx context.Context, signature string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM applications WHERE signature = $1`, signature); err != nil {
		return fmt.Errorf("failed to delete application %s: %w", signature, err)
	}
	return nil
}
