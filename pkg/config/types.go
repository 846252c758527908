// Package config provides configuration loading and validation for Sherlog.
package config

import (
	"log/slog"
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	Archive    ArchiveConfig    `yaml:"archive" toml:"archive"`
	Correction CorrectionConfig `yaml:"correction" toml:"correction"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	View       ViewConfig       `yaml:"view" toml:"view"`
}

// ArchiveConfig controls how support archives are read.
type ArchiveConfig struct {
	// Password decrypts encrypted archive members. ${VAR} and $VAR are
	// expanded from the environment.
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`

	// SensorBoards replaces the built-in list of sensor board names.
	SensorBoards []string `yaml:"sensor_boards,omitempty" toml:"sensor_boards,omitempty"`

	// SensorBoardPrefixes replaces the built-in sensor board prefixes.
	SensorBoardPrefixes []string `yaml:"sensor_board_prefixes,omitempty" toml:"sensor_board_prefixes,omitempty"`
}

// CorrectionConfig controls device timestamp correction.
type CorrectionConfig struct {
	// Sentinel is an RFC 3339 time. Device timestamps before it are
	// treated as relative. Empty uses the built-in date.
	Sentinel string `yaml:"sentinel,omitempty" toml:"sentinel,omitempty"`

	sentinel time.Time
}

// SentinelTime returns the parsed sentinel, zero when unset.
func (c *CorrectionConfig) SentinelTime() time.Time {
	return c.sentinel
}

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json

	level slog.Level
}

// SlogLevel returns the parsed level.
func (l *LoggingConfig) SlogLevel() slog.Level {
	return l.level
}

// ViewConfig holds the defaults of the entry view.
type ViewConfig struct {
	// Height is the number of rows printed.
	Height int `yaml:"height" toml:"height"`

	// HiddenSeverities are hidden unless a command asks for them.
	HiddenSeverities []string `yaml:"hidden_severities,omitempty" toml:"hidden_severities,omitempty"`

	// HiddenSources are slash separated source paths, such as "Sensor/axis".
	HiddenSources []string `yaml:"hidden_sources,omitempty" toml:"hidden_sources,omitempty"`

	hiddenSeverities []model.Level
}

// HiddenLevels returns the parsed hidden severities.
func (v *ViewConfig) HiddenLevels() []model.Level {
	return v.hiddenSeverities
}
