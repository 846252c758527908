package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sherlog/pkg/model"
	"github.com/ccollicutt/sherlog/pkg/output"
	"github.com/ccollicutt/sherlog/pkg/store"
)

// DumpOptions holds command-line options for the dump command.
type DumpOptions struct {
	Output      string
	Severities  []string
	Sources     []string
	HideSources []string
	Search      string
	Lines       int
	Percent     float64
	Anchor      int
	Verbose     bool
	Quiet       bool
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	opts := &DumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump <file>...",
		Short: "Print the merged entries of log files and archives",
		Long: `Load log files and support archives, merge their entries by time and
print one viewport of the result.

Filters:
  --severity     show only these severities
  --source       show only these sources (paths as printed by tree, without the root)
  --hide-source  hide these sources
  --search       show only entries whose message contains the text

Exit codes:
  0 - Entries printed
  1 - No entry is visible
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Severities, "severity", nil, "Show only these severities (can be repeated)")
	cmd.Flags().StringSliceVar(&opts.Sources, "source", nil, "Show only these sources (can be repeated)")
	cmd.Flags().StringSliceVar(&opts.HideSources, "hide-source", nil, "Hide these sources (can be repeated)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Show only entries containing text")
	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 0, "Rows to print (default from config)")
	cmd.Flags().Float64Var(&opts.Percent, "percent", 0, "Scroll position in percent before printing")
	cmd.Flags().IntVar(&opts.Anchor, "anchor", -1, "Entry offset to print time deltas against")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show sources, deltas and load details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no rows")

	return cmd
}

func runDump(cmd *cobra.Command, args []string, opts *DumpOptions) error {
	ExitCode = 0

	formatter, err := createFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}
	if opts.Lines < 0 {
		return fmt.Errorf("invalid lines %d", opts.Lines)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	st, tree, meta, err := s.load(args)
	if err != nil {
		return err
	}

	height := opts.Lines
	if height == 0 {
		height = s.cfg.View.Height
	}
	st.SetHeight(height)
	st.SetAnchor(opts.Anchor)

	if err := applySeverities(st, s.cfg.View.HiddenLevels(), opts.Severities); err != nil {
		return err
	}
	if err := applySources(st, tree, s.cfg.View.HiddenSources, opts); err != nil {
		return err
	}
	if opts.Search != "" {
		st.SetSearch(opts.Search)
	}
	if cmd.Flags().Changed("percent") {
		st.SeekPercentage(opts.Percent/100, height)
	}

	report := output.NewViewReport(st, tree, height, meta)
	if err := formatter.FormatView(s.ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if !report.HasRows() {
		ExitCode = 1
	}
	return nil
}

// applySeverities hides the configured severities. An explicit list
// replaces them: only the listed severities stay visible.
func applySeverities(st *store.Store, hidden []model.Level, show []string) error {
	if len(show) == 0 {
		for _, level := range hidden {
			st.SetSeverityVisible(level, false)
		}
		return nil
	}

	visible := make(map[model.Level]bool, len(show))
	for _, s := range show {
		level, err := model.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("invalid severity: %w", err)
		}
		visible[level] = true
	}
	for _, level := range model.Levels {
		if !visible[level] {
			st.SetSeverityVisible(level, false)
		}
	}
	return nil
}

// applySources restricts the view to --source when given, then hides the
// configured sources and --hide-source.
func applySources(st *store.Store, tree *store.Source, configHidden []string, opts *DumpOptions) error {
	if len(opts.Sources) > 0 {
		st.SetSourceVisible(tree.ID, tree.LastID, false)
		for _, path := range opts.Sources {
			src := tree.Lookup(path)
			if src == nil {
				return fmt.Errorf("unknown source %q", path)
			}
			st.SetSourceVisible(src.ID, src.LastID, true)
		}
	}

	// Configured paths may not exist in every load.
	for _, path := range configHidden {
		if src := tree.Lookup(path); src != nil {
			st.SetSourceVisible(src.ID, src.LastID, false)
		}
	}
	for _, path := range opts.HideSources {
		src := tree.Lookup(path)
		if src == nil {
			return fmt.Errorf("unknown source %q", path)
		}
		st.SetSourceVisible(src.ID, src.LastID, false)
	}
	return nil
}
