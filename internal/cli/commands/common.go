package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sherlog/pkg/archive"
	"github.com/ccollicutt/sherlog/pkg/config"
	"github.com/ccollicutt/sherlog/pkg/loader"
	"github.com/ccollicutt/sherlog/pkg/logger"
	"github.com/ccollicutt/sherlog/pkg/output"
	"github.com/ccollicutt/sherlog/pkg/store"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Names of the persistent flags defined by the root command.
const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

// session holds what every loading command needs.
type session struct {
	ctx        context.Context
	cfg        *config.Config
	configPath string
	log        *logger.Logger
}

// newSession loads the configuration named by the persistent --config flag,
// or the defaults, and sets up diagnostic logging on stderr.
func newSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := flagString(cmd, FlagConfig)
	cfg, err := config.LoadOrDefault(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.SlogLevel()
	if s := flagString(cmd, FlagLogLevel); s != "" {
		if level, err = logger.ParseLevel(s); err != nil {
			return nil, err
		}
	}
	log := logger.New(level, cfg.Logging.Format == config.FormatJSON, cmd.ErrOrStderr())

	return &session{ctx: ctx, cfg: cfg, configPath: configPath, log: log}, nil
}

// flagString reads a flag that may be inherited from the root command.
// Commands run on their own, as in tests, see the empty string.
func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func (s *session) loaderOptions() loader.Options {
	return loader.Options{
		Archive: archive.Options{
			Password:            s.cfg.Archive.Password,
			SensorBoards:        s.cfg.Archive.SensorBoards,
			SensorBoardPrefixes: s.cfg.Archive.SensorBoardPrefixes,
			Sentinel:            s.cfg.Correction.SentinelTime(),
			Logger:              s.log.WithComponent("archive").Logger,
		},
		Logger: s.log.WithComponent("loader").Logger,
	}
}

// load expands the arguments, loads every file under one tree and builds
// the store over it.
func (s *session) load(args []string) (*store.Store, *store.Source, output.Metadata, error) {
	files, err := loader.ExpandPaths(args)
	if err != nil {
		return nil, nil, output.Metadata{}, fmt.Errorf("expanding paths: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, output.Metadata{}, fmt.Errorf("no log files matched %v", args)
	}

	start := time.Now()
	root, err := loader.LoadPaths(s.ctx, files, s.loaderOptions())
	if err != nil {
		return nil, nil, output.Metadata{}, err
	}
	st, tree := store.FromTree(root)

	meta := output.Metadata{
		ConfigFile: s.configPath,
		Files:      files,
		LoadedAt:   time.Now(),
		Duration:   time.Since(start),
	}
	s.log.Info("loaded", "files", len(files), "entries", st.Len(), "duration", meta.Duration)
	return st, tree, meta, nil
}

func createFormatter(name string, opts output.FormatOptions) (output.Formatter, error) {
	f, ok := output.New(name, opts)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (use text or json)", name)
	}
	return f, nil
}
