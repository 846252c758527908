package output

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// FormatTree renders the tree indented by depth.
func (f *TextFormatter) FormatTree(ctx context.Context, report *TreeReport, w io.Writer) error {
	for _, src := range report.Sources {
		indent := strings.Repeat("  ", src.Depth)
		if src.Leaf || f.opts.Verbose {
			fmt.Fprintf(w, "%s%s [%d-%d] %d entries\n", indent, src.Name, src.ID, src.LastID, src.Entries)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, src.Name)
		}
	}
	if f.opts.Verbose {
		f.formatMetadata(&report.Metadata, w)
	}
	return nil
}

// FormatView renders the rows followed by a summary line.
func (f *TextFormatter) FormatView(ctx context.Context, report *ViewReport, w io.Writer) error {
	if !f.opts.Quiet {
		for i := range report.Rows {
			f.formatRow(&report.Rows[i], w)
		}
		fmt.Fprintln(w, "---")
	}

	s := report.Summary
	fmt.Fprintf(w, "Sherlog: %d of %d entries visible, at %.0f%%\n",
		s.Visible, s.Entries, s.ScrollPercentage*100)

	if f.opts.Verbose {
		f.formatMetadata(&report.Metadata, w)
	}
	return nil
}

func (f *TextFormatter) formatRow(row *Row, w io.Writer) {
	lines := strings.Split(row.Message, "\n")
	fmt.Fprintf(w, "%s %s ", row.Timestamp.Format(TimestampLayout), row.Severity.Short())
	if f.opts.Verbose {
		fmt.Fprintf(w, "%s ", row.Source)
		if row.Delta != "" {
			fmt.Fprintf(w, "(%s) ", row.Delta)
		}
	}
	fmt.Fprintln(w, lines[0])

	// Continuation lines line up with the message.
	pad := strings.Repeat(" ", len(TimestampLayout)+5)
	for _, line := range lines[1:] {
		fmt.Fprintf(w, "%s%s\n", pad, line)
	}
}

func (f *TextFormatter) formatMetadata(meta *Metadata, w io.Writer) {
	if meta.ConfigFile != "" {
		fmt.Fprintf(w, "Config: %s\n", meta.ConfigFile)
	}
	fmt.Fprintf(w, "Files: %s\n", strings.Join(meta.Files, ", "))
	fmt.Fprintf(w, "Duration: %s\n", meta.Duration.Round(1e6))
}
