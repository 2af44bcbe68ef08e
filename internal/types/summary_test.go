package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSummary_Record(t *testing.T) {
	s := NewRunSummary("run-1", time.Now())
	a := JobPosting{Title: "Data Analyst", Company: "Acme", URL: "u1"}
	b := JobPosting{Title: "Python Developer", Company: "Globex", URL: "u2"}

	s.Record(Applied(a, ApplicationEasyApply, ""))
	amb := Applied(b, ApplicationCompanySite, ReasonPartialSuccess)
	amb.Ambiguous = true
	s.Record(amb)
	s.Record(Skipped(a))
	s.Record(Failed(b, ReasonNoApplyButton))

	assert.Equal(t, 4, s.Attempted)
	assert.Equal(t, 2, s.Applied)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Ambiguous)
	assert.Equal(t, 1, s.ByType[ApplicationEasyApply])
	assert.Equal(t, 1, s.ByType[ApplicationCompanySite])
	require.Len(t, s.Failed, 1)
	assert.Equal(t, ReasonNoApplyButton, s.Failed[0].Reason)
	assert.InDelta(t, 50.0, s.SuccessRate(), 1e-9)
	assert.Len(t, s.AppliedOf(ApplicationEasyApply), 1)
}

func TestRunSummary_EmptyRate(t *testing.T) {
	assert.Equal(t, 0.0, NewRunSummary("x", time.Now()).SuccessRate())
}

func TestRunSummary_JSON(t *testing.T) {
	s := NewRunSummary("run-1", time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	s.Record(Applied(JobPosting{Title: "Data Analyst"}, ApplicationEasyApply, ""))
	s.Finish(time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), false)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "run-1", m["run_id"])
	assert.Equal(t, map[string]any{"easy_apply": 1.0}, m["by_type"])
	assert.Equal(t, []any{}, m["failed"])
	assert.NotContains(t, m, "outcomes")
	assert.NotContains(t, m, "interrupted")
}
