package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/sherlog/pkg/logger"
	"github.com/ccollicutt/sherlog/pkg/model"
)

// Load reads and validates a configuration file. Files ending in .toml are
// read as TOML, everything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is
// empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and parses derived values.
func Validate(cfg *Config) error {
	if err := validateArchive(&cfg.Archive); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := validateCorrection(&cfg.Correction); err != nil {
		return fmt.Errorf("correction: %w", err)
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := validateView(&cfg.View); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return nil
}

func validateArchive(a *ArchiveConfig) error {
	a.Password = expandEnvVar(a.Password)

	for i, board := range a.SensorBoards {
		if board == "" {
			return fmt.Errorf("sensor_boards[%d]: name is required", i)
		}
		// Board names end at the first underscore of a log name.
		if strings.Contains(board, "_") {
			return fmt.Errorf("sensor_boards[%d] (%s): must not contain '_'", i, board)
		}
	}
	for i, prefix := range a.SensorBoardPrefixes {
		if prefix == "" {
			return fmt.Errorf("sensor_board_prefixes[%d]: prefix is required", i)
		}
	}
	return nil
}

func validateCorrection(c *CorrectionConfig) error {
	if c.Sentinel == "" {
		c.sentinel = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, c.Sentinel)
	if err != nil {
		return fmt.Errorf("invalid sentinel: %w", err)
	}
	c.sentinel = t
	return nil
}

func validateLogging(l *LoggingConfig) error {
	level, err := logger.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	l.level = level

	switch l.Format {
	case "":
		l.Format = DefaultLogFormat
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", l.Format)
	}
	return nil
}

func validateView(v *ViewConfig) error {
	if v.Height < 0 {
		return errors.New("height must not be negative")
	}
	if v.Height == 0 {
		v.Height = DefaultViewHeight
	}

	v.hiddenSeverities = v.hiddenSeverities[:0]
	for i, s := range v.HiddenSeverities {
		level, err := model.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("hidden_severities[%d]: %w", i, err)
		}
		v.hiddenSeverities = append(v.hiddenSeverities, level)
	}
	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
