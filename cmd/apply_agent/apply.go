package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var applyCmd = &cobra.Command{
	Use:   "apply <job-url>",
	Short: "Apply to a single job posting",
	Long: `Logs in and applies to one posting without searching. The title is used for the
ledger signature, so pass it exactly as the board shows it.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var (
	applyConfigPath string
	applyTitle      string
	applyCompany    string
	applySummary    string
	applyHeadless   bool
	applyLogLevel   string
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyConfigPath, "config", "c", "", "Path to config file (JSON or YAML)")
	applyCmd.Flags().StringVarP(&applyTitle, "title", "t", "", "Job title as listed (required)")
	applyCmd.Flags().StringVar(&applyCompany, "company", "", "Company name, read from the page when empty")
	applyCmd.Flags().StringVar(&applySummary, "summary-file", "", "Write the run summary as JSON to this path")
	applyCmd.Flags().BoolVar(&applyHeadless, "headless", false, "Run the browser without a window")
	applyCmd.Flags().StringVar(&applyLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	if err := applyCmd.MarkFlagRequired("title"); err != nil {
		panic(fmt.Sprintf("failed to mark title flag as required: %v", err))
	}
}

// jobFromArgs builds the posting for a job URL given on the command line.
func jobFromArgs(rawURL, title, company string) (types.JobPosting, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return types.JobPosting{}, fmt.Errorf("invalid job URL %q", rawURL)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return types.JobPosting{}, fmt.Errorf("job title is required")
	}
	return types.JobPosting{Title: title, Company: strings.TrimSpace(company), URL: u.String()}, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	job, err := jobFromArgs(args[0], applyTitle, applyCompany)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(applyConfigPath, func(c *config.Config) {
		if cmd.Flags().Changed("headless") {
			c.Headless = applyHeadless
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = applyLogLevel
		}
		if c.APIKey == "" {
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	})
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

	a, err := newAgent(base, cfg, logger, agentOptions{in: cmd.InOrStdin(), out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, runErr := a.runner.ApplyJobs(ctx, []types.JobPosting{job})
	if summary != nil {
		if err := a.report(summary, applySummary); err != nil {
			logger.Error("failed to write run report", zap.Error(err))
		}
	}
	return runErr
}
