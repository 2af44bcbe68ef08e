package ledger

import (
	"context"

	"github.com/jonathan/apply-agent/internal/types"
)

// MemoryStore keeps records in process memory. Used with dedup-only runs and tests.
type MemoryStore struct {
	records []types.ApplicationRecord
	// FailAppend, when set, is returned by Append.
	FailAppend error
}

// NewMemoryStore returns a store preloaded with recs.
func NewMemoryStore(recs ...types.ApplicationRecord) *MemoryStore {
	return &MemoryStore{records: append([]types.ApplicationRecord(nil), recs...)}
}

func (m *MemoryStore) Load(context.Context) ([]types.ApplicationRecord, error) {
	return append([]types.ApplicationRecord(nil), m.records...), nil
}

func (m *MemoryStore) Append(_ context.Context, rec types.ApplicationRecord) error {
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
