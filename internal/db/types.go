package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values.
const (
	RunStatusRunning     = "running"
	RunStatusCompleted   = "completed"
	RunStatusInterrupted = "interrupted"
	RunStatusFailed      = "failed"
)

// Run represents one invocation of the job loop.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	Status     string     `json:"status"`
	Keywords   []string   `json:"keywords"`
	Attempted  int        `json:"attempted"`
	Applied    int        `json:"applied"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunTotals are the counters written when a run completes.
type RunTotals struct {
	Attempted int
	Applied   int
	Skipped   int
	Failed    int
}

// OutcomeRow is one processed job within a run.
type OutcomeRow struct {
	Title           string
	Company         string
	URL             string
	Status          string
	ApplicationType string
	Reason          string
	Ambiguous       bool
}
