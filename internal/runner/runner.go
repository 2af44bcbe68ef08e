// Package runner is the job loop: it discovers postings per keyword, hands each to the
// application pathway one at a time and aggregates the run summary.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/pacing"
	"github.com/jonathan/apply-agent/internal/session"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// Discoverer lists postings for a keyword.
type Discoverer interface {
	Discover(ctx context.Context, keyword, location string) ([]types.JobPosting, error)
}

// Applier takes one posting to a terminal outcome.
type Applier interface {
	Apply(ctx context.Context, job types.JobPosting) types.Outcome
}

// RunStore persists run history. *db.DB implements it.
type RunStore interface {
	CreateRun(ctx context.Context, id uuid.UUID, keywords []string) error
	RecordOutcome(ctx context.Context, runID uuid.UUID, o db.OutcomeRow) error
	CompleteRun(ctx context.Context, id uuid.UUID, status string, totals db.RunTotals) error
}

// Runner drives a whole run. It is not safe for concurrent use.
type Runner struct {
	discoverer Discoverer
	applier    Applier
	login      func(context.Context) error
	keywords   []string
	location   string
	pacing     pacing.Policy
	runs       RunStore
	metrics    *metrics.Recorder
	ledgerSize func() int
	onOutcome  func(types.Outcome)
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogin sets the step run before any job. Its AuthenticationError aborts the run.
func WithLogin(fn func(context.Context) error) Option {
	return func(r *Runner) { r.login = fn }
}

// WithSearch sets the keywords and location searched by Run.
func WithSearch(keywords []string, location string) Option {
	return func(r *Runner) {
		r.keywords = keywords
		r.location = location
	}
}

// WithPacing sets the delays between jobs and keywords.
func WithPacing(p pacing.Policy) Option {
	return func(r *Runner) { r.pacing = p }
}

// WithRunStore records the run and each outcome.
func WithRunStore(s RunStore) Option {
	return func(r *Runner) { r.runs = s }
}

// WithMetrics stamps run metrics. ledgerSize reports the ledger length at the end.
func WithMetrics(m *metrics.Recorder, ledgerSize func() int) Option {
	return func(r *Runner) {
		r.metrics = m
		r.ledgerSize = ledgerSize
	}
}

// WithOutcomeHook is called after every processed job.
func WithOutcomeHook(fn func(types.Outcome)) Option {
	return func(r *Runner) { r.onOutcome = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New builds a runner.
func New(d Discoverer, a Applier, opts ...Option) *Runner {
	r := &Runner{
		discoverer: d,
		applier:    a,
		pacing:     pacing.None(),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run logs in, then searches every keyword and applies to the postings found. Keyword
// failures are logged and skipped. Cancelling ctx stops the run at the next job boundary;
// the job in flight always completes. The summary is returned even when err is set.
func (r *Runner) Run(ctx context.Context) (*types.RunSummary, error) {
	return r.execute(ctx, func(ctx context.Context, run *run) bool {
		for i, kw := range r.keywords {
			if ctx.Err() != nil {
				return true
			}
			if i > 0 {
				if err := r.pacing.Keyword.Wait(ctx); err != nil {
					return true
				}
			}

			log := r.logger.With(zap.String("keyword", kw))
			log.Info("searching")
			jobs, err := r.discoverer.Discover(ctx, kw, r.location)
			if err != nil {
				if ctx.Err() != nil {
					return true
				}
				log.Error("keyword failed", zap.Error(err))
				continue
			}
			log.Info("postings found", zap.Int("count", len(jobs)))

			if r.process(ctx, run, jobs) {
				return true
			}
		}
		return false
	})
}

// ApplyJobs logs in and applies to the given postings in order.
func (r *Runner) ApplyJobs(ctx context.Context, jobs []types.JobPosting) (*types.RunSummary, error) {
	return r.execute(ctx, func(ctx context.Context, run *run) bool {
		return r.process(ctx, run, jobs)
	})
}

type run struct {
	id      uuid.UUID
	summary *types.RunSummary
}

func (r *Runner) execute(ctx context.Context, body func(context.Context, *run) bool) (*types.RunSummary, error) {
	id := uuid.New()
	cur := &run{id: id, summary: types.NewRunSummary(id.String(), r.now())}
	cur.summary.Keywords = r.keywords
	r.logger.Info("run started", zap.String("run_id", cur.summary.RunID), zap.Strings("keywords", r.keywords))

	if r.runs != nil {
		if err := r.runs.CreateRun(ctx, id, r.keywords); err != nil {
			r.logger.Warn("run history unavailable", zap.Error(err))
			r.runs = nil
		}
	}

	if r.login != nil {
		if err := r.login(ctx); err != nil {
			r.finish(ctx, cur, db.RunStatusFailed, false)
			var authErr *session.AuthenticationError
			if errors.As(err, &authErr) {
				return cur.summary, err
			}
			return cur.summary, &session.AuthenticationError{Message: "login failed", Cause: err}
		}
	}

	interrupted := body(ctx, cur)
	status := db.RunStatusCompleted
	if interrupted {
		status = db.RunStatusInterrupted
		r.logger.Warn("run interrupted", zap.Int("processed", cur.summary.Attempted))
	}
	r.finish(ctx, cur, status, interrupted)
	return cur.summary, nil
}

// process applies to jobs in order and reports whether the run was interrupted.
func (r *Runner) process(ctx context.Context, cur *run, jobs []types.JobPosting) bool {
	for i, job := range jobs {
		if ctx.Err() != nil {
			return true
		}
		if i > 0 {
			if err := r.pacing.Job.Wait(ctx); err != nil {
				return true
			}
		}

		out := r.applier.Apply(context.WithoutCancel(ctx), job)
		cur.summary.Record(out)
		if r.runs != nil {
			row := db.OutcomeRow{
				Title:           out.Job.Title,
				Company:         out.Job.Company,
				URL:             out.Job.URL,
				Status:          string(out.Status),
				ApplicationType: string(out.Type),
				Reason:          out.Reason,
				Ambiguous:       out.Ambiguous,
			}
			if err := r.runs.RecordOutcome(context.WithoutCancel(ctx), cur.id, row); err != nil {
				r.logger.Warn("outcome not saved to run history", zap.Error(err))
			}
		}
		if r.onOutcome != nil {
			r.onOutcome(out)
		}
	}
	return false
}

func (r *Runner) finish(ctx context.Context, cur *run, status string, interrupted bool) {
	at := r.now()
	s := cur.summary
	s.Finish(at, interrupted)

	if r.runs != nil {
		totals := db.RunTotals{
			Attempted: s.Attempted,
			Applied:   s.Applied,
			Skipped:   s.Skipped,
			Failed:    len(s.Failed),
		}
		if err := r.runs.CompleteRun(context.WithoutCancel(ctx), cur.id, status, totals); err != nil {
			r.logger.Warn("run history not completed", zap.Error(err))
		}
	}
	if r.metrics != nil {
		size := 0
		if r.ledgerSize != nil {
			size = r.ledgerSize()
		}
		r.metrics.Finish(size, at)
	}

	r.logger.Info("run finished",
		zap.String("run_id", s.RunID),
		zap.String("status", status),
		zap.Int("attempted", s.Attempted),
		zap.Int("applied", s.Applied),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", len(s.Failed)),
		zap.Float64("success_rate", s.SuccessRate()))
}
