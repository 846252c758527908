package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sherlog/pkg/output"
)

// TreeOptions holds command-line options for the tree command.
type TreeOptions struct {
	Output  string
	Verbose bool
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree <file>...",
		Short: "Print the source tree of log files and archives",
		Long: `Load log files and support archives and print their source tree.

Every source is listed with its id range and entry count. Ids are the
ones the dump command's --source filters refer to by path.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show id ranges of groups and load details")

	return cmd
}

func runTree(cmd *cobra.Command, args []string, opts *TreeOptions) error {
	formatter, err := createFormatter(opts.Output, output.FormatOptions{Verbose: opts.Verbose})
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	_, tree, meta, err := s.load(args)
	if err != nil {
		return err
	}

	report := output.NewTreeReport(tree, meta)
	if err := formatter.FormatTree(s.ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
