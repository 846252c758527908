// Package model defines the normalized log data shared by parsers, the
// archive orchestrator and the store.
package model

import (
	"fmt"
	"strings"
)

// Level is the normalized severity of a log entry. Values are ordered so
// that a larger Level is more severe.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// Levels lists all levels from most to least severe.
var Levels = []Level{LevelCritical, LevelError, LevelWarning, LevelInfo, LevelDebug, LevelTrace}

var levelNames = [...]struct{ long, short string }{
	LevelTrace:    {"trace", "TRC"},
	LevelDebug:    {"debug", "DBG"},
	LevelInfo:     {"info", "INF"},
	LevelWarning:  {"warning", "WRN"},
	LevelError:    {"error", "ERR"},
	LevelCritical: {"critical", "CRI"},
}

// String returns the lower-case level name.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l].long
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// Short returns the three-letter tag used in tabular output.
func (l Level) Short() string {
	if int(l) < len(levelNames) {
		return levelNames[l].short
	}
	return "???"
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel parses a level by its long name or short tag, case-insensitively.
// "warn" and "fatal" are accepted as aliases.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "warn":
		return LevelWarning, nil
	case "fatal":
		return LevelCritical, nil
	}
	for i, n := range levelNames {
		if s == n.long || s == strings.ToLower(n.short) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}
