// Package cmd provides the command-line interface for asninfo using the Cobra
// framework. It defines the root command and the generate and serve
// subcommands.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the CLI. Subcommands are registered via
// their init() hooks. A .env file in the working directory is loaded before
// any subcommand runs; a missing file is fine.
var rootCmd = &cobra.Command{
	Use:   "asninfo",
	Short: "Export and serve merged ASN metadata",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		_ = godotenv.Load()
	},
}

// Execute runs the root Cobra command and returns any error encountered
// during execution. This is the main entry point called from main.go.
func Execute() error {
	return rootCmd.Execute()
}
