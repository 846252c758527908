// Package cli provides the command-line interface for Sherlog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sherlog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sherlog",
		Short: "Browse device logs and support archives",
		Long: `Sherlog loads device logs (glog, xlog, rds) and support archives,
corrects relative device timestamps, merges every source into one
timeline and prints filtered views of it.

Supported inputs:
  .glog          device ring buffer logs
  .xlog          client logs
  .log           RDS service logs
  .sfile .lfile  support archives (optionally encrypted zip)
  .zip

Directories are searched for supported files; glob patterns are expanded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP(commands.FlagConfig, "c", "", "Configuration file (YAML or TOML)")
	rootCmd.PersistentFlags().String(commands.FlagLogLevel, "", "Diagnostic log level (debug|info|warn|error)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewTreeCommand())
	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
