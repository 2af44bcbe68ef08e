package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/fields"
	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/listing"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/operator"
	"github.com/jonathan/apply-agent/internal/pacing"
	"github.com/jonathan/apply-agent/internal/pathway"
	"github.com/jonathan/apply-agent/internal/runner"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/session"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// minSuggestionConfidence drops model suggestions the operator would mostly overwrite.
const minSuggestionConfidence = 0.6

// agent holds everything one run needs. Close releases it in reverse order.
type agent struct {
	cfg     *config.Config
	logger  *zap.Logger
	ledger  *ledger.Ledger
	chrome  *browser.Chrome
	runs    *db.DB
	llm     *llm.GeminiClient
	metrics *metrics.Recorder
	printer *observability.Printer
	console *operator.Console
	runner  *runner.Runner
}

type agentOptions struct {
	in          io.Reader
	out         io.Writer
	userDataDir string
}

func newAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts agentOptions) (*agent, error) {
	creds, err := session.LoadCredentials()
	if err != nil {
		return nil, err
	}

	a := &agent{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRecorder(),
		printer: observability.NewPrinter(opts.out),
		console: operator.NewConsole(opts.in, opts.out),
	}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	if a.ledger, err = openLedger(ctx, cfg, logger); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		if a.runs, err = db.Connect(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		if err = a.runs.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	chromeOpts := browser.DefaultChromeOptions()
	chromeOpts.Headless = cfg.Headless
	chromeOpts.UserDataDir = opts.userDataDir
	if a.chrome, err = browser.NewChrome(ctx, chromeOpts, logger); err != nil {
		return nil, err
	}

	profile := cfg.Profile()
	var op operator.Operator = a.console
	if cfg.APIKey != "" {
		if a.llm, err = llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey); err != nil {
			return nil, err
		}
		op = operator.NewSuggesting(op, llm.NewAnswerer(a.llm), profile, minSuggestionConfidence, logger)
	}

	resolver := selector.New(a.chrome, selector.WithTimeout(cfg.LocatorTimeout), selector.WithLogger(logger))
	policy := pacing.NewPolicy(cfg.Pacing)

	settings := pathway.SettingsFrom(cfg)
	if !cfg.ResumeAvailable() {
		settings.ResumePath = ""
	}
	machine := pathway.New(resolver,
		fields.NewFiller(a.chrome, profile, fields.WithLogger(logger)),
		a.ledger,
		pathway.WithSettings(settings),
		pathway.WithOperator(op),
		pathway.WithPacer(policy.Action),
		pathway.WithMetrics(a.metrics),
		pathway.WithLogger(logger),
	)

	discoverer := listing.New(resolver, cfg.BaseURL,
		listing.WithTargetRoles(cfg.TargetRoles),
		listing.WithLimit(cfg.MaxJobsPerKeyword),
		listing.WithLogger(logger),
	)

	sess := session.New(resolver, cfg.BaseURL, session.WithPacer(policy.Action), session.WithLogger(logger))

	runnerOpts := []runner.Option{
		runner.WithLogin(func(ctx context.Context) error { return sess.Login(ctx, creds) }),
		runner.WithSearch(cfg.Keywords, cfg.Location),
		runner.WithPacing(policy),
		runner.WithMetrics(a.metrics, a.ledger.Len),
		runner.WithOutcomeHook(a.printer.PrintOutcome),
		runner.WithLogger(logger),
	}
	if a.runs != nil {
		runnerOpts = append(runnerOpts, runner.WithRunStore(a.runs))
	}
	a.runner = runner.New(discoverer, machine, runnerOpts...)
	ready = true
	return a, nil
}

// banner describes the run about to start.
func (a *agent) banner() observability.Banner {
	p := a.cfg.Profile()
	return observability.Banner{
		Applicant:    p.FullName(),
		Email:        p.Get(types.ProfileEmail),
		Keywords:     a.cfg.Keywords,
		Location:     a.cfg.Location,
		ResumePath:   a.cfg.ResumePath,
		ResumeFound:  a.cfg.ResumeAvailable(),
		CompanySites: a.cfg.HandleCompanySites,
		Country:      p.Country(),
		DialCode:     p.DialCode(),
		LedgerSize:   a.ledger.Len(),
	}
}

// report prints the summary and writes the optional summary and metrics files.
func (a *agent) report(summary *types.RunSummary, summaryFile string) error {
	a.printer.PrintSummary(summary)
	if summaryFile != "" {
		if err := runner.WriteSummary(summaryFile, summary); err != nil {
			return err
		}
		a.logger.Info("run summary written", zap.String("path", summaryFile))
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func (a *agent) Close() {
	if a.chrome != nil {
		if err := a.chrome.Close(); err != nil {
			a.logger.Warn("failed to close browser", zap.Error(err))
		}
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.runs != nil {
		a.runs.Close()
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("failed to close ledger", zap.Error(err))
		}
	}
}

// runContexts derives the two contexts of a command. base is never cancelled by a signal
// and owns the browser, the ledger and the database pool. run is cancelled on SIGINT or
// SIGTERM and only stops the job loop between jobs.
func runContexts(parent context.Context) (base, run context.Context, stop context.CancelFunc) {
	base = context.WithoutCancel(parent)
	run, stop = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return base, run, stop
}
