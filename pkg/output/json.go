package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatTree renders the tree as JSON.
func (f *JSONFormatter) FormatTree(ctx context.Context, report *TreeReport, w io.Writer) error {
	return f.encode(w, report)
}

// FormatView renders the view as JSON.
func (f *JSONFormatter) FormatView(ctx context.Context, report *ViewReport, w io.Writer) error {
	if f.opts.Quiet {
		// Quiet mode: just summary
		return f.encode(w, report.Summary)
	}
	return f.encode(w, report)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
