package output

import (
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
	"github.com/ccollicutt/sherlog/pkg/store"
)

func entry(sec int64, level model.Level, msg string) model.LogEntry {
	return model.LogEntry{Timestamp: time.Unix(sec, 0).UTC(), Severity: level, Message: msg}
}

// createTestStore builds root{A, B} with three entries interleaved by time.
func createTestStore() (*store.Store, *store.Source) {
	root := model.NewGroup("root",
		model.NewLeaf("A", []model.LogEntry{
			entry(1, model.LevelInfo, "alpha"),
			entry(3, model.LevelError, "gamma\nsecond line"),
		}),
		model.NewLeaf("B", []model.LogEntry{
			entry(2, model.LevelWarning, "beta"),
		}),
	)
	return store.FromTree(root)
}

func createTestMetadata() Metadata {
	return Metadata{
		ConfigFile: "sherlog.yaml",
		Files:      []string{"support.sfile"},
		LoadedAt:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
	}
}
