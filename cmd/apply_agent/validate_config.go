package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check a config file without starting a run",
	RunE:  runValidateConfig,
}

var validateConfigPath string

func init() {
	rootCmd.AddCommand(validateConfigCmd)

	validateConfigCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "Path to config file (JSON or YAML)")
}

func runValidateConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(validateConfigPath, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Config is valid")
	fmt.Fprintf(out, "  keywords:       %s\n", strings.Join(cfg.Keywords, ", "))
	fmt.Fprintf(out, "  target roles:   %d\n", len(cfg.TargetRoles))
	fmt.Fprintf(out, "  company sites:  %t\n", cfg.HandleCompanySites)
	fmt.Fprintf(out, "  max steps:      %d\n", cfg.MaxEasyApplySteps)
	if cfg.DatabaseURL != "" {
		fmt.Fprintln(out, "  ledger:         postgres")
	} else {
		fmt.Fprintf(out, "  ledger:         %s\n", cfg.LedgerPath)
	}
	if !cfg.ResumeAvailable() {
		fmt.Fprintln(out, "  warning: resume file not found, uploads will be skipped")
	}
	return nil
}
