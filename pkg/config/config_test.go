package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
)

func TestLoad_ValidYAML(t *testing.T) {
	content := `
archive:
  password: secret
  sensor_boards: [axis, adm]
  sensor_board_prefixes: [cfm]
correction:
  sentinel: "2005-01-01T00:00:00Z"
logging:
  level: debug
  format: json
view:
  height: 25
  hidden_severities: [debug, TRC]
  hidden_sources: ["Sensor/axis"]
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Archive.Password != "secret" {
		t.Errorf("Password = %q, want secret", cfg.Archive.Password)
	}
	if len(cfg.Archive.SensorBoards) != 2 {
		t.Errorf("SensorBoards = %v, want 2 boards", cfg.Archive.SensorBoards)
	}
	if want := time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC); !cfg.Correction.SentinelTime().Equal(want) {
		t.Errorf("SentinelTime() = %v, want %v", cfg.Correction.SentinelTime(), want)
	}
	if cfg.Logging.SlogLevel() != slog.LevelDebug || cfg.Logging.Format != FormatJSON {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.View.Height != 25 {
		t.Errorf("Height = %d, want 25", cfg.View.Height)
	}
	levels := cfg.View.HiddenLevels()
	if len(levels) != 2 || levels[0] != model.LevelDebug || levels[1] != model.LevelTrace {
		t.Errorf("HiddenLevels() = %v, want [debug trace]", levels)
	}
	if len(cfg.View.HiddenSources) != 1 || cfg.View.HiddenSources[0] != "Sensor/axis" {
		t.Errorf("HiddenSources = %v", cfg.View.HiddenSources)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	content := `
[archive]
password = "secret"
sensor_boards = ["axis"]

[logging]
level = "error"

[view]
height = 10
`
	path := writeTempFile(t, "config.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Archive.Password != "secret" || len(cfg.Archive.SensorBoards) != 1 {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Logging.SlogLevel() != slog.LevelError {
		t.Errorf("level = %v, want error", cfg.Logging.SlogLevel())
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Format = %q, want default %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if cfg.View.Height != 10 {
		t.Errorf("Height = %d, want 10", cfg.View.Height)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTempFile(t, "invalid.toml", `[archive`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for invalid TOML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvArchivePassword, "from-env")
	t.Setenv(EnvLogLevel, "info")

	path := writeTempFile(t, "config.yaml", "archive:\n  password: file\nlogging:\n  level: debug\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.Archive.Password)
	}
	if cfg.Logging.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.Logging.SlogLevel())
	}
}

func TestLoad_PasswordExpansion(t *testing.T) {
	t.Setenv("SHERLOG_TEST_PW", "expanded")

	path := writeTempFile(t, "config.yaml", "archive:\n  password: ${SHERLOG_TEST_PW}\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.Password != "expanded" {
		t.Errorf("Password = %q, want expanded", cfg.Archive.Password)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.View.Height != DefaultViewHeight || cfg.Logging.SlogLevel() != slog.LevelWarn {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty sensor board", func(c *Config) { c.Archive.SensorBoards = []string{""} }, true},
		{"underscore in board", func(c *Config) { c.Archive.SensorBoards = []string{"my_board"} }, true},
		{"empty board prefix", func(c *Config) { c.Archive.SensorBoardPrefixes = []string{""} }, true},
		{"bad sentinel", func(c *Config) { c.Correction.Sentinel = "2005-01-01" }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"empty format", func(c *Config) { c.Logging.Format = "" }, false},
		{"negative height", func(c *Config) { c.View.Height = -1 }, true},
		{"bad severity", func(c *Config) { c.View.HiddenSeverities = []string{"loud"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DefaultHeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.Height = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.View.Height != DefaultViewHeight {
		t.Errorf("Height = %d, want %d", cfg.View.Height, DefaultViewHeight)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.View.Height != DefaultViewHeight {
		t.Errorf("Height = %d, want %d", cfg.View.Height, DefaultViewHeight)
	}
	if cfg.Archive.SensorBoards != nil {
		t.Errorf("SensorBoards = %v, want nil", cfg.Archive.SensorBoards)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("SHERLOG_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"${SHERLOG_TEST_VAR}", "value"},
		{"$SHERLOG_TEST_VAR", "value"},
		{"${SHERLOG_TEST_UNSET}", ""},
	}
	for _, tt := range tests {
		if got := expandEnvVar(tt.in); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
