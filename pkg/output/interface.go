package output

import (
	"context"
	"io"
)

// Formatter renders reports in a specific format.
type Formatter interface {
	// FormatTree renders a source tree report to the given writer.
	FormatTree(ctx context.Context, report *TreeReport, w io.Writer) error

	// FormatView renders a view report to the given writer.
	FormatView(ctx context.Context, report *ViewReport, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds metadata and per-row details.
	Verbose bool

	// Quiet prints the summary only.
	Quiet bool
}

// New returns the formatter for a format name.
func New(name string, opts FormatOptions) (Formatter, bool) {
	switch name {
	case "text":
		return NewTextFormatter(opts), true
	case "json":
		return NewJSONFormatter(opts), true
	}
	return nil, false
}
