package main

import (
	"fmt"
	"os"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search for jobs and apply to them",
	Long: `Logs in, searches every configured keyword and applies to matching postings
through Easy Apply or the company's own site. Jobs already in the ledger are skipped.

Credentials come from LINKEDIN_USERNAME and LINKEDIN_PASSWORD, or from the system
keyring (see "apply_agent credentials set").

Press Ctrl+C to stop after the current job; the summary is still printed.`,
	RunE: runAgent,
}

var (
	runConfigPath     string
	runKeywords       []string
	runLocation       string
	runMaxJobs        int
	runResume         string
	runLedgerPath     string
	runDatabaseURL    string
	runNoCompanySites bool
	runMaxSteps       int
	runConservative   bool
	runHeadless       bool
	runUserDataDir    string
	runSummaryFile    string
	runMetricsFile    string
	runAPIKey         string
	runLogLevel       string
	runYes            bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to config file (JSON or YAML)")
	runCmd.Flags().StringSliceVarP(&runKeywords, "keywords", "k", nil, "Search keywords, comma-separated (overrides config)")
	runCmd.Flags().StringVarP(&runLocation, "location", "l", "", "Search location (overrides config)")
	runCmd.Flags().IntVar(&runMaxJobs, "max-jobs", 0, "Maximum postings per keyword (overrides config)")
	runCmd.Flags().StringVar(&runResume, "resume", "", "Path to the resume file to upload (overrides config)")
	runCmd.Flags().StringVar(&runLedgerPath, "ledger", "", "Path to the application ledger JSON file (overrides config)")
	runCmd.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL URL for the ledger and run history (overrides config)")
	runCmd.Flags().BoolVar(&runNoCompanySites, "no-company-sites", false, "Skip jobs that apply on the company's own site")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Maximum Easy Apply steps per job (overrides config)")
	runCmd.Flags().BoolVar(&runConservative, "conservative", false, "Do not count company-site forms without a submit button as applied")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run the browser without a window")
	runCmd.Flags().StringVar(&runUserDataDir, "user-data-dir", "", "Chrome profile directory to reuse between runs")
	runCmd.Flags().StringVar(&runSummaryFile, "summary-file", "", "Write the run summary as JSON to this path")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write Prometheus metrics to this path (overrides config)")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key for answer suggestions (overrides config and GEMINI_API_KEY)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Start without asking for confirmation")
}

// applyRunOverrides copies explicitly set flags over the loaded configuration.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("keywords") {
		cfg.Keywords = runKeywords
	}
	if flags.Changed("location") {
		cfg.Location = runLocation
	}
	if flags.Changed("max-jobs") {
		cfg.MaxJobsPerKeyword = runMaxJobs
	}
	if flags.Changed("resume") {
		cfg.ResumePath = runResume
	}
	if flags.Changed("ledger") {
		cfg.LedgerPath = runLedgerPath
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if flags.Changed("no-company-sites") {
		cfg.HandleCompanySites = !runNoCompanySites
	}
	if flags.Changed("max-steps") {
		cfg.MaxEasyApplySteps = runMaxSteps
	}
	if flags.Changed("conservative") && runConservative {
		cfg.PartialSuccess = config.PartialSuccessConservative
	}
	if flags.Changed("headless") {
		cfg.Headless = runHeadless
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = runMetricsFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = runLogLevel
	}
	switch {
	case flags.Changed("api-key"):
		cfg.APIKey = runAPIKey
	case cfg.APIKey == "":
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(runConfigPath, func(c *config.Config) { applyRunOverrides(cmd, c) })
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	base, ctx, stop := runContexts(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	a, err := newAgent(base, cfg, logger, agentOptions{in: cmd.InOrStdin(), out: out, userDataDir: runUserDataDir})
	if err != nil {
		return err
	}
	defer a.Close()

	a.printer.PrintBanner(a.banner())
	if !runYes {
		ok, err := a.console.Confirm(ctx, "Start applying?")
		if err != nil || !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	summary, runErr := a.runner.Run(ctx)
	if summary != nil {
		if err := a.report(summary, runSummaryFile); err != nil {
			logger.Error("failed to write run report", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if summary != nil && summary.Interrupted {
		fmt.Fprintln(out, "Interrupted, stopped after the current job.")
	}
	return nil
}
