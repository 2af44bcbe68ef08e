package pathway

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/fields"
	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/operator"
	"github.com/jonathan/apply-agent/internal/pacing"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultMaxSteps caps the Easy Apply loop.
const DefaultMaxSteps = 5

// DefaultWindowWait bounds the wait for a company-site window after the apply click.
const DefaultWindowWait = 3 * time.Second

// Settings are the behavior switches of the machine.
type Settings struct {
	Dedup        bool
	CompanySites bool
	MaxSteps     int
	// Optimistic counts a company-site form with filled fields but no submit control as applied.
	Optimistic bool
	ResumePath string
}

// SettingsFrom derives machine settings from the run configuration.
func SettingsFrom(c *config.Config) Settings {
	return Settings{
		Dedup:        c.SkipAppliedJobs,
		CompanySites: c.HandleCompanySites,
		MaxSteps:     c.MaxEasyApplySteps,
		Optimistic:   c.Optimistic(),
		ResumePath:   c.ResumePath,
	}
}

// Machine applies to one job at a time. It owns the browser for the duration of Apply.
type Machine struct {
	resolver   *selector.Resolver
	filler     *fields.Filler
	ledger     *ledger.Ledger
	operator   operator.Operator
	pacer      *pacing.Pacer
	metrics    *metrics.Recorder
	settings   Settings
	windowWait time.Duration
	now        func() time.Time
	observer   func(State)
	logger     *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(m *Machine) { m.settings = s }
}

// WithOperator sets who answers required fields the profile cannot fill.
func WithOperator(o operator.Operator) Option {
	return func(m *Machine) { m.operator = o }
}

// WithPacer spaces out state transitions.
func WithPacer(p *pacing.Pacer) Option {
	return func(m *Machine) { m.pacer = p }
}

// WithMetrics records outcomes and fill counts.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Machine) { m.metrics = r }
}

// WithWindowWait sets how long to wait for a new window after the apply click.
func WithWindowWait(d time.Duration) Option {
	return func(m *Machine) { m.windowWait = d }
}

// WithClock overrides the time source used for ledger records.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithObserver is called on every state entered.
func WithObserver(fn func(State)) Option {
	return func(m *Machine) { m.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New builds a machine. Without an operator, unresolved required fields are left empty.
func New(r *selector.Resolver, f *fields.Filler, l *ledger.Ledger, opts ...Option) *Machine {
	m := &Machine{
		resolver: r,
		filler:   f,
		ledger:   l,
		settings: Settings{
			Dedup:        true,
			CompanySites: true,
			MaxSteps:     DefaultMaxSteps,
			Optimistic:   true,
		},
		windowWait: DefaultWindowWait,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.settings.MaxSteps <= 0 {
		m.settings.MaxSteps = DefaultMaxSteps
	}
	return m
}

// Apply runs the pathway for job and returns its terminal outcome. It never returns an error:
// collaborator failures are reported as Failed outcomes.
func (m *Machine) Apply(ctx context.Context, job types.JobPosting) types.Outcome {
	start := time.Now()
	out := m.apply(ctx, job)
	m.report(out, time.Since(start))
	return out
}

func (m *Machine) apply(ctx context.Context, job types.JobPosting) types.Outcome {
	d := m.resolver.Driver()
	log := m.logger.With(zap.String("title", job.Title), zap.String("url", job.URL))

	m.enter(StateOpened)
	if err := d.Navigate(ctx, job.URL); err != nil {
		log.Warn("job page failed to open", zap.Error(err))
		return m.abandon(job, types.ReasonNavigation)
	}
	m.pause(ctx)
	job = job.WithCompany(m.company(ctx))

	m.enter(StateDedupCheck)
	if m.settings.Dedup && m.ledger.Contains(job.Signature()) {
		m.enter(StateSkipped)
		return types.Skipped(job)
	}

	m.enter(StateAffordanceSearch)
	res := m.resolver.Resolve(ctx, selector.ApplyButton)
	if !res.Found {
		m.enter(StateNoAffordance)
		return types.Failed(job, types.ReasonNoApplyButton)
	}
	kind := classifyAffordance(res.Element)
	log.Debug("apply control found", zap.String("label", res.Element.Caption()), zap.Stringer("kind", kind))

	if kind == affordanceExternal && !m.settings.CompanySites {
		return m.abandon(job, types.ReasonCompanySiteOff)
	}

	origin, err := d.CurrentWindow(ctx)
	if err != nil {
		log.Warn("current window unknown", zap.Error(err))
		return m.abandon(job, types.ReasonNavigation)
	}
	before, _ := d.WindowHandles(ctx)

	if err := d.ScrollIntoView(ctx, res.Handle); err != nil {
		log.Debug("scroll to apply control failed", zap.Error(err))
	}
	if err := d.Act(ctx, res.Handle, browser.Click()); err != nil {
		log.Warn("apply control not clickable", zap.Error(err))
		return m.abandon(job, types.ReasonNoApplyButton)
	}
	m.pause(ctx)

	wait := m.windowWait
	if kind == affordanceEasy {
		wait = 0
	}
	popup := m.newWindow(ctx, before, wait)

	var out types.Outcome
	switch {
	case popup != "":
		if !m.settings.CompanySites {
			m.closeWindow(ctx, popup, origin)
			return m.abandon(job, types.ReasonCompanySiteOff)
		}
		out = m.external(ctx, job, popup, origin)
	case kind == affordanceEasy:
		out = m.easyApply(ctx, job)
	case kind == affordanceExternal:
		if now, err := d.CurrentURL(ctx); err != nil || now == job.URL {
			return m.abandon(job, types.ReasonNoNewWindow)
		}
		out = m.external(ctx, job, "", origin)
	default:
		return m.abandon(job, types.ReasonUnknownApplication)
	}

	if out.Status != types.StatusApplied {
		return out
	}
	return m.record(ctx, out)
}

// company reads the employer name from the job page, falling back to UnknownCompany.
func (m *Machine) company(ctx context.Context) string {
	res := m.resolver.ResolveFunc(ctx, selector.CompanyName, func(el browser.Element) bool {
		return strings.TrimSpace(el.Text) != ""
	})
	if !res.Found {
		return types.UnknownCompany
	}
	return strings.TrimSpace(res.Element.Text)
}

// classifyAffordance reads the apply control label.
func classifyAffordance(el browser.Element) affordance {
	label := strings.ToLower(el.Caption())
	switch {
	case strings.Contains(label, "easy apply"):
		return affordanceEasy
	case strings.Contains(label, "company"), strings.Contains(label, "external"):
		return affordanceExternal
	default:
		return affordanceUnknown
	}
}

// newWindow waits up to wait for a window that was not in before.
func (m *Machine) newWindow(ctx context.Context, before []string, wait time.Duration) string {
	var found string
	browser.Wait(ctx, func(ctx context.Context) bool {
		now, err := m.resolver.Driver().WindowHandles(ctx)
		if err != nil {
			return false
		}
		for _, h := range now {
			if !slices.Contains(before, h) {
				found = h
				return true
			}
		}
		return false
	}, wait, browser.DefaultPollInterval)
	return found
}

func (m *Machine) closeWindow(ctx context.Context, popup, origin string) {
	d := m.resolver.Driver()
	if err := d.CloseWindow(ctx, popup); err != nil {
		m.logger.Debug("close window failed", zap.Error(err))
	}
	if err := d.SwitchWindow(ctx, origin); err != nil {
		m.logger.Warn("switch back to job window failed", zap.Error(err))
	}
}

// record appends the ledger entry for a submitted application.
func (m *Machine) record(ctx context.Context, out types.Outcome) types.Outcome {
	rec := types.NewApplicationRecord(out.Job, out.Type, m.now())
	err := m.ledger.Append(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrDuplicate):
		m.logger.Info("application already in ledger", zap.String("signature", rec.Signature))
	default:
		m.logger.Error("application submitted but not recorded",
			zap.String("signature", rec.Signature), zap.Error(err))
		out.Reason = types.ReasonNotRecorded
	}
	return out
}

func (m *Machine) abandon(job types.JobPosting, reason string) types.Outcome {
	m.enter(StateAbandoned)
	return types.Failed(job, reason)
}

func (m *Machine) enter(s State) {
	m.logger.Debug("state", zap.String("state", string(s)))
	if m.observer != nil {
		m.observer(s)
	}
}

func (m *Machine) pause(ctx context.Context) {
	if err := m.pacer.Wait(ctx); err != nil {
		m.logger.Debug("pacing interrupted", zap.Error(err))
	}
}

func (m *Machine) report(out types.Outcome, took time.Duration) {
	logFields := []zap.Field{
		zap.String("title", out.Job.Title),
		zap.String("company", out.Job.Company),
		zap.String("outcome", out.String()),
	}
	if out.Reason != "" {
		logFields = append(logFields, zap.String("reason", out.Reason))
	}
	switch out.Status {
	case types.StatusFailed:
		m.logger.Warn("job finished", logFields...)
	default:
		m.logger.Info("job finished", logFields...)
	}
	if m.metrics != nil {
		m.metrics.ObserveOutcome(out, took)
	}
}

func (m *Machine) observeFills(rep fields.Report) {
	if m.metrics != nil {
		m.metrics.ObserveFills(rep.Filled(), rep.Failed())
	}
}
