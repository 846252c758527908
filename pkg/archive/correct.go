package archive

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/sherlog/pkg/datetime"
	"github.com/ccollicutt/sherlog/pkg/model"
)

// Devices log this once their bus clock is set, with or without the
// trailing dot:
//
//	Setting EtherCAT time [delta = 1562060032100954112 ns].
const (
	markerPrefix = "Setting EtherCAT time [delta = "
	markerSuffix = " ns]"
)

// CorrectionStats summarizes one correction pass.
type CorrectionStats struct {
	// Corrected counts entries whose timestamp was shifted.
	Corrected int

	// Markers counts clock markers that established a correction.
	Markers int

	// Conflicts counts markers that replaced a correction of the same session.
	Conflicts int

	// MissingSession counts entries without a session id.
	MissingSession int

	// Failed counts entries whose shifted timestamp was out of range and
	// markers whose delta could not be parsed.
	Failed int
}

func (s *CorrectionStats) add(o CorrectionStats) {
	s.Corrected += o.Corrected
	s.Markers += o.Markers
	s.Conflicts += o.Conflicts
	s.MissingSession += o.MissingSession
	s.Failed += o.Failed
}

type correction struct {
	session uint32
	delta   int64 // nanoseconds
}

// Correct shifts device-relative timestamps to wall-clock time for every
// leaf below src. Entries before sentinel are considered relative; a zero
// sentinel uses datetime.DevicesEpoch.
func Correct(src *model.LogSource, sentinel time.Time, logger *slog.Logger) CorrectionStats {
	if logger == nil {
		logger = slog.Default()
	}
	if sentinel.IsZero() {
		sentinel = datetime.DevicesEpoch
	}

	var total CorrectionStats
	src.Leaves(func(leaf *model.LogSource) {
		stats := correctEntries(leaf.Entries, sentinel, logger.With("source", leaf.Name))
		if stats.MissingSession > 0 {
			logger.Warn("entries without session id", "source", leaf.Name, "count", stats.MissingSession)
		}
		if stats.Corrected > 0 {
			logger.Debug("corrected timestamps", "source", leaf.Name,
				"corrected", stats.Corrected, "markers", stats.Markers)
		}
		total.add(stats)
	})
	return total
}

// correctEntries walks entries from newest to oldest. A clock marker
// establishes the delta for its session; older entries of that session
// dated before sentinel receive the delta. The correction ends at the first
// entry of another session or without a session id.
func correctEntries(entries []model.LogEntry, sentinel time.Time, logger *slog.Logger) CorrectionStats {
	var stats CorrectionStats
	var active *correction

	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]

		session, ok := sessionID(e)
		if !ok {
			stats.MissingSession++
			active = nil
			continue
		}

		if delta, isMarker, valid := parseMarker(e.Message); isMarker {
			if !valid {
				logger.Warn("could not parse clock marker", "message", e.Message)
				stats.Failed++
				active = nil
				continue
			}
			next := &correction{session: session, delta: delta}
			switch {
			case active != nil && *active == *next:
				logger.Warn("clock marker repeated", "session", session, "delta_ns", delta)
				stats.Conflicts++
			case active != nil && active.session == session:
				logger.Warn("clock marker replaced", "session", session,
					"old_delta_ns", active.delta, "new_delta_ns", delta)
				stats.Conflicts++
			}
			active = next
			stats.Markers++
			continue
		}

		if active == nil {
			continue
		}
		if active.session != session {
			active = nil
			continue
		}
		if !e.Timestamp.Before(sentinel) {
			continue
		}
		ts, ok := datetime.AddOffset100ns(e.Timestamp, active.delta/100)
		if !ok {
			stats.Failed++
			continue
		}
		e.Timestamp = ts
		stats.Corrected++
	}
	return stats
}

func sessionID(e *model.LogEntry) (uint32, bool) {
	f, ok := e.Field(model.FieldSessionID)
	if !ok {
		return 0, false
	}
	return f.UInt32()
}

// parseMarker reports whether msg is a clock marker and, if so, its delta
// in nanoseconds.
func parseMarker(msg string) (delta int64, isMarker, valid bool) {
	if !strings.HasPrefix(msg, markerPrefix) {
		return 0, false, false
	}
	if !strings.HasSuffix(msg, markerSuffix) && !strings.HasSuffix(msg, markerSuffix+".") {
		return 0, false, false
	}
	fields := strings.Split(msg, " ")
	if len(fields) < 6 {
		return 0, true, false
	}
	delta, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return 0, true, false
	}
	return delta, true, true
}
