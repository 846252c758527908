package config

import (
	"os"
)

// Default values for configuration.
const (
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = FormatText
	DefaultViewHeight = 40
)

// Environment variable names.
const (
	EnvArchivePassword = "SHERLOG_ARCHIVE_PASSWORD"
	EnvLogLevel        = "SHERLOG_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		View: ViewConfig{
			Height: DefaultViewHeight,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if password := os.Getenv(EnvArchivePassword); password != "" {
		c.Archive.Password = password
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}
