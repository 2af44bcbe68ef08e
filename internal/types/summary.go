package types

import "time"

// FailedJob is one failure listed in a run summary.
type FailedJob struct {
	Title   string `json:"title"`
	Company string `json:"company,omitempty"`
	URL     string `json:"url,omitempty"`
	Reason  string `json:"reason"`
}

// RunSummary aggregates the outcomes of one run.
type RunSummary struct {
	RunID       string                  `json:"run_id"`
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	Interrupted bool                    `json:"interrupted,omitempty"`
	Keywords    []string                `json:"keywords,omitempty"`
	Attempted   int                     `json:"attempted"`
	Applied     int                     `json:"applied"`
	Skipped     int                     `json:"skipped"`
	Ambiguous   int                     `json:"ambiguous,omitempty"`
	ByType      map[ApplicationType]int `json:"by_type"`
	Failed      []FailedJob             `json:"failed"`
	// Outcomes holds every outcome in processing order.
	Outcomes []Outcome `json:"-"`
}

// NewRunSummary starts an empty summary.
func NewRunSummary(runID string, started time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartedAt: started.UTC(),
		ByType:    map[ApplicationType]int{},
		Failed:    []FailedJob{},
	}
}

// Record counts one outcome. Every processed job counts as attempted.
func (s *RunSummary) Record(o Outcome) {
	s.Attempted++
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusApplied:
		s.Applied++
		s.ByType[o.Type]++
		if o.Ambiguous {
			s.Ambiguous++
		}
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed = append(s.Failed, FailedJob{
			Title:   o.Job.Title,
			Company: o.Job.Company,
			URL:     o.Job.URL,
			Reason:  o.Reason,
		})
	}
}

// Finish stamps the end time.
func (s *RunSummary) Finish(at time.Time, interrupted bool) {
	s.FinishedAt = at.UTC()
	s.Interrupted = interrupted
}

// SuccessRate is applied over attempted, in percent. Zero when nothing was attempted.
func (s *RunSummary) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Applied) * 100 / float64(s.Attempted)
}

// AppliedOf returns the applied outcomes of one type in processing order.
func (s *RunSummary) AppliedOf(t ApplicationType) []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusApplied && o.Type == t {
			out = append(out, o)
		}
	}
	return out
}
