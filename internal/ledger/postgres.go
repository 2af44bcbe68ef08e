package ledger

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/types"
)

// PostgresStore keeps records in the applications table.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore wraps an open connection. The schema is created if missing.
func NewPostgresStore(ctx context.Context, conn *db.DB) (*PostgresStore, error) {
	if err := conn.Migrate(ctx); err != nil {
		return nil, &StoreError{Op: "open", Message: "failed to prepare database", Cause: err}
	}
	return &PostgresStore{db: conn}, nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]types.ApplicationRecord, error) {
	recs, err := s.db.ListApplications(ctx)
	if err != nil {
		return nil, &StoreError{Op: "load", Message: "query failed", Cause: err}
	}
	return recs, nil
}

// Append inserts in a single statement. A conflicting signature written by another
// process is reported as ErrDuplicate.
func (s *PostgresStore) Append(ctx context.Context, rec types.ApplicationRecord) error {
	inserted, err := s.db.InsertApplication(ctx, rec)
	if err != nil {
		return &StoreError{Op: "append", Message: "insert failed", Cause: err}
	}
	if !inserted {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.Signature)
	}
	return nil
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
