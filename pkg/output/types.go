// Package output provides formatting of source trees and entry views.
package output

import (
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
	"github.com/ccollicutt/sherlog/pkg/store"
)

// TimestampLayout is the layout rows are printed with.
const TimestampLayout = "02.01.06 15:04:05.000"

// Metadata provides context about the load.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Files lists the files that were loaded.
	Files []string `json:"files"`

	// LoadedAt is when loading finished.
	LoadedAt time.Time `json:"loaded_at"`

	// Duration is how long loading took.
	Duration time.Duration `json:"duration"`
}

// SourceNode is one node of a printed source tree.
type SourceNode struct {
	ID      uint32 `json:"id"`
	LastID  uint32 `json:"last_id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Depth   int    `json:"depth"`
	Entries uint64 `json:"entries"`
	Leaf    bool   `json:"leaf"`
}

// TreeReport lists the sources of a flattened tree in pre-order.
type TreeReport struct {
	Metadata Metadata     `json:"metadata"`
	Sources  []SourceNode `json:"sources"`
}

// NewTreeReport creates a TreeReport from a flattened tree.
func NewTreeReport(tree *store.Source, meta Metadata) *TreeReport {
	report := &TreeReport{Metadata: meta}
	names := tree.Names()
	tree.Walk(func(src *store.Source, depth int) bool {
		report.Sources = append(report.Sources, SourceNode{
			ID:      src.ID,
			LastID:  src.LastID,
			Name:    src.Name,
			Path:    names[src.ID],
			Depth:   depth,
			Entries: src.ChildCount,
			Leaf:    src.IsLeaf(),
		})
		return true
	})
	return report
}

// Row is one printed entry.
type Row struct {
	Offset    int         `json:"offset"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  model.Level `json:"severity"`
	Source    string      `json:"source"`
	Message   string      `json:"message"`

	// Delta is the time since the anchor entry, empty without anchor.
	Delta string `json:"delta,omitempty"`
}

// Summary describes the state of the view.
type Summary struct {
	Entries          int     `json:"entries"`
	Visible          int     `json:"visible"`
	ViewportOffset   int     `json:"viewport_offset"`
	ScrollPercentage float64 `json:"scroll_percentage"`
}

// ViewReport holds the rows of one viewport.
type ViewReport struct {
	Metadata Metadata `json:"metadata"`
	Summary  Summary  `json:"summary"`
	Rows     []Row    `json:"rows"`
}

// NewViewReport captures the viewport of s with the given height.
func NewViewReport(s *store.Store, tree *store.Source, height int, meta Metadata) *ViewReport {
	report := &ViewReport{
		Metadata: meta,
		Rows:     []Row{},
	}
	names := tree.Names()
	for off, e := range s.Rows(height) {
		row := Row{
			Offset:    off,
			Timestamp: e.Timestamp,
			Severity:  e.Severity,
			Source:    names[e.SourceID],
			Message:   e.Message,
		}
		if d, ok := s.AnchorDelta(off); ok {
			row.Delta = store.FormatDelta(d)
		}
		report.Rows = append(report.Rows, row)
	}
	report.Summary = Summary{
		Entries:          s.Len(),
		Visible:          s.VisibleCount(),
		ViewportOffset:   s.ViewportOffset(),
		ScrollPercentage: s.ScrollPercentage(height),
	}
	return report
}

// HasRows returns true if any entry is visible.
func (r *ViewReport) HasRows() bool {
	return r.Summary.Visible > 0
}
