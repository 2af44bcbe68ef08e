package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the application ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every recorded application",
	RunE:  runLedgerList,
}

var ledgerSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show application counts per type with the latest entries",
	RunE:  runLedgerSummary,
}

var (
	ledgerConfigPath string
	ledgerPath       string
	ledgerDBURL      string
	ledgerJSON       bool
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd, ledgerSummaryCmd)

	ledgerCmd.PersistentFlags().StringVarP(&ledgerConfigPath, "config", "c", "", "Path to config file (JSON or YAML)")
	ledgerCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Path to the application ledger JSON file (overrides config)")
	ledgerCmd.PersistentFlags().StringVar(&ledgerDBURL, "db-url", "", "PostgreSQL URL of the ledger (overrides config)")
	ledgerListCmd.Flags().BoolVar(&ledgerJSON, "json", false, "Print the records as JSON")
}

func loadLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	cfg, err := loadConfig(ledgerConfigPath, func(c *config.Config) {
		if cmd.Flags().Changed("ledger") {
			c.LedgerPath = ledgerPath
		}
		if cmd.Flags().Changed("db-url") {
			c.DatabaseURL = ledgerDBURL
		}
	})
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return openLedger(cmd.Context(), cfg, logger)
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	l, err := loadLedger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	recs := l.Snapshot()
	if ledgerJSON {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal ledger: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintLedger(recs)
	return nil
}

func runLedgerSummary(cmd *cobra.Command, _ []string) error {
	l, err := loadLedger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	observability.NewPrinter(cmd.OutOrStdout()).PrintLedgerSummary(ledger.Summarize(l.Snapshot()))
	return nil
}
