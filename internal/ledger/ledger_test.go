package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func record(title, company string, appType types.ApplicationType, at time.Time) types.ApplicationRecord {
	job := types.JobPosting{Title: title, Company: company, URL: "https://example.com/" + title}
	return types.NewApplicationRecord(job, appType, at)
}

func TestLedger_AppendAndContains(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, l.LoadExisting(ctx))

	rec := record("Data Analyst", "Acme", types.ApplicationEasyApply, time.Now())
	assert.False(t, l.Contains(rec.Signature))

	require.NoError(t, l.Append(ctx, rec))
	assert.True(t, l.Contains("data analyst_acme"))
	assert.True(t, l.Contains(types.Signature("DATA ANALYST", "acme")))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_RejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := New(store)

	require.NoError(t, l.Append(ctx, record("Data Analyst", "Acme", types.ApplicationEasyApply, time.Now())))
	err := l.Append(ctx, record("data analyst", "ACME", types.ApplicationCompanySite, time.Now()))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, 1, l.Len())
	recs, _ := store.Load(ctx)
	assert.Len(t, recs, 1)
}

func TestLedger_StoreFailureLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.FailAppend = errors.New("disk full")
	l := New(store)

	rec := record("Data Analyst", "Acme", types.ApplicationEasyApply, time.Now())
	err := l.Append(ctx, rec)

	require.Error(t, err)
	assert.False(t, l.Contains(rec.Signature))
	assert.Equal(t, 0, l.Len())
}

func TestLedger_RejectsInvalidRecord(t *testing.T) {
	l := New(NewMemoryStore())

	var storeErr *StoreError
	err := l.Append(context.Background(), types.ApplicationRecord{ApplicationType: types.ApplicationEasyApply})
	require.True(t, errors.As(err, &storeErr))

	rec := record("Data Analyst", "Acme", "fax", time.Now())
	err = l.Append(context.Background(), rec)
	require.True(t, errors.As(err, &storeErr))
	assert.Contains(t, err.Error(), "invalid application type")
}

func TestLedger_LoadExisting(t *testing.T) {
	now := time.Now()
	a := record("Data Analyst", "Acme", types.ApplicationEasyApply, now)
	b := record("Python Developer", "Globex", types.ApplicationCompanySite, now)
	l := New(NewMemoryStore(a, b, a))

	require.NoError(t, l.LoadExisting(context.Background()))
	assert.True(t, l.Contains(a.Signature))
	assert.True(t, l.Contains(b.Signature))
	assert.Equal(t, 3, l.Len())
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore())
	require.NoError(t, l.Append(ctx, record("Data Analyst", "Acme", types.ApplicationEasyApply, time.Now())))

	snap := l.Snapshot()
	snap[0].Title = "changed"
	assert.Equal(t, "Data Analyst", l.Snapshot()[0].Title)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	var recs []types.ApplicationRecord
	for i := 0; i < 4; i++ {
		recs = append(recs, record("Easy "+string(rune('A'+i)), "Acme", types.ApplicationEasyApply, base.Add(time.Duration(i)*time.Minute)))
	}
	recs = append(recs, record("Site", "Globex", types.ApplicationCompanySite, base))

	s := Summarize(recs)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 4, s.ByType[types.ApplicationEasyApply])
	assert.Equal(t, 1, s.ByType[types.ApplicationCompanySite])
	require.Len(t, s.Recent[types.ApplicationEasyApply], 3)
	assert.Equal(t, "Easy D", s.Recent[types.ApplicationEasyApply][0].Title)
}
