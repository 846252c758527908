package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sherlog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a Sherlog configuration file without loading any logs.

Checks:
  - YAML or TOML syntax
  - Log level and format
  - Sensor board names
  - Correction sentinel date
  - View height and hidden severities`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log level:    %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(out, "  View height:  %d\n", cfg.View.Height)
	if cfg.Archive.Password != "" {
		fmt.Fprintf(out, "  Password:     set\n")
	}
	if len(cfg.Archive.SensorBoards) > 0 {
		fmt.Fprintf(out, "  Sensor boards: %s\n", strings.Join(cfg.Archive.SensorBoards, ", "))
	}
	if t := cfg.Correction.SentinelTime(); !t.IsZero() {
		fmt.Fprintf(out, "  Sentinel:     %s\n", t.Format(time.RFC3339))
	}
	if len(cfg.View.HiddenSeverities) > 0 {
		fmt.Fprintf(out, "  Hidden severities: %s\n", strings.Join(cfg.View.HiddenSeverities, ", "))
	}
	if len(cfg.View.HiddenSources) > 0 {
		fmt.Fprintf(out, "  Hidden sources:    %s\n", strings.Join(cfg.View.HiddenSources, ", "))
	}

	return nil
}
