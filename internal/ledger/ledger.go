// Package ledger tracks which jobs were applied to and persists the audit trail.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// Store persists application records.
type Store interface {
	// Load returns every persisted record in append order.
	Load(ctx context.Context) ([]types.ApplicationRecord, error)
	// Append durably adds one record. It either commits fully or not at all.
	Append(ctx context.Context, rec types.ApplicationRecord) error
	// Close releases the store.
	Close() error
}

// Ledger is the in-memory signature index over a Store. Append is the only mutation.
type Ledger struct {
	mu      sync.RWMutex
	store   Store
	index   map[string]struct{}
	records []types.ApplicationRecord
	logger  *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(lg *Ledger) { lg.logger = l }
}

// New returns an empty ledger over store. Call LoadExisting to read persisted records.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		index:  map[string]struct{}{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadExisting replaces the index with the store's records. Records repeating an
// earlier signature are kept in the snapshot but indexed once.
func (l *Ledger) LoadExisting(ctx context.Context) error {
	recs, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.index = make(map[string]struct{}, len(recs))
	l.records = recs
	dups := 0
	for _, r := range recs {
		if _, ok := l.index[r.Signature]; ok {
			dups++
			continue
		}
		l.index[r.Signature] = struct{}{}
	}
	if dups > 0 {
		l.logger.Warn("ledger contains repeated signatures", zap.Int("count", dups))
	}
	l.logger.Info("ledger loaded", zap.Int("records", len(recs)))
	return nil
}

// Contains reports whether signature has been recorded.
func (l *Ledger) Contains(signature string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.index[signature]
	return ok
}

// Append records a confirmed application. The store commits before the index changes,
// so an interrupted append leaves neither updated.
func (l *Ledger) Append(ctx context.Context, rec types.ApplicationRecord) error {
	if rec.Signature == "" {
		return &StoreError{Op: "append", Message: "record has no signature"}
	}
	if !rec.ApplicationType.Valid() {
		return &StoreError{Op: "append", Message: fmt.Sprintf("invalid application type %q", rec.ApplicationType)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[rec.Signature]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.Signature)
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return err
	}
	l.index[rec.Signature] = struct{}{}
	l.records = append(l.records, rec)

	l.logger.Info("application recorded",
		zap.String("signature", rec.Signature),
		zap.String("type", string(rec.ApplicationType)))
	return nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Snapshot returns a copy of every record in append order.
func (l *Ledger) Snapshot() []types.ApplicationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]types.ApplicationRecord(nil), l.records...)
}

// Close closes the store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Summary aggregates a snapshot for reporting.
type Summary struct {
	Total  int
	ByType map[types.ApplicationType]int
	// Recent holds up to three of the latest records per type, newest first.
	Recent map[types.ApplicationType][]types.ApplicationRecord
}

// Summarize counts records per type and keeps the latest few of each.
func Summarize(recs []types.ApplicationRecord) Summary {
	s := Summary{
		Total:  len(recs),
		ByType: map[types.ApplicationType]int{},
		Recent: map[types.ApplicationType][]types.ApplicationRecord{},
	}
	sorted := append([]types.ApplicationRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AppliedAt.After(sorted[j].AppliedAt)
	})
	for _, r := range sorted {
		s.ByType[r.ApplicationType]++
		if len(s.Recent[r.ApplicationType]) < 3 {
			s.Recent[r.ApplicationType] = append(s.Recent[r.ApplicationType], r)
		}
	}
	return s
}
