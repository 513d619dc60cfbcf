// Package main provides the entry point for the consent form builder CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "consent_builder",
	Short: "Consent form builder",
	Long: `Consent form builder generates one individualized consent form per study site from a shared HTML template.

Sites that override the reimbursement, data protection or complaint sections get their own text spliced into the template; everything else is copied verbatim.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
