// Package main provides the apply_agent command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Job application bot for LinkedIn postings",
	Long: "apply_agent searches LinkedIn for postings matching your keywords, fills Easy Apply and " +
		"company-site application forms from your profile, and keeps a ledger so no job is applied to twice.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
