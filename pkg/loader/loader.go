// Package loader turns files on disk into source trees, choosing the
// parser or the archive reader by file extension.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/sherlog/pkg/archive"
	"github.com/ccollicutt/sherlog/pkg/model"
	"github.com/ccollicutt/sherlog/pkg/parser"
)

// ErrNoExtension is returned for paths without a file extension.
var ErrNoExtension = errors.New("no file extension")

// UnrecognizedExtensionError is returned for extensions no reader handles.
type UnrecognizedExtensionError struct {
	Path string
	Ext  string
}

func (e *UnrecognizedExtensionError) Error() string {
	return fmt.Sprintf("unrecognized file extension %q: %s", e.Ext, e.Path)
}

// archiveExtensions are the containers read by package archive.
var archiveExtensions = map[string]bool{
	".sfile": true,
	".lfile": true,
	".zip":   true,
}

// Options configures loading.
type Options struct {
	Archive archive.Options
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Supported reports whether path has an extension LoadFromPath handles.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if archiveExtensions[ext] {
		return true
	}
	_, ok := parser.FormatForExtension(ext)
	return ok
}

// LoadFromPath loads a log file or archive. Single log files become a leaf
// named after the file; archives become the tree built by package archive.
func LoadFromPath(ctx context.Context, path string, opts Options) (*model.LogSource, error) {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return nil, fmt.Errorf("loading %s: %w", path, ErrNoExtension)
	}
	ext = strings.ToLower(ext)

	if archiveExtensions[ext] {
		if opts.Archive.Logger == nil {
			opts.Archive.Logger = opts.logger()
		}
		return archive.Open(ctx, path, opts.Archive)
	}

	format, ok := parser.FormatForExtension(ext)
	if !ok {
		return nil, &UnrecognizedExtensionError{Path: path, Ext: ext}
	}
	return loadFile(ctx, path, format, opts.logger())
}

func loadFile(ctx context.Context, path string, format parser.Format, logger *slog.Logger) (*model.LogSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	p, err := parser.New(format, logger)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	res, err := parser.Parse(ctx, p, f, name, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded log file", "path", path, "format", format, "entries", len(res.Entries))
	return model.NewLeaf(name, res.Entries), nil
}

// LoadPaths loads several files under one root. A single path is returned
// as loaded. Files that fail to load abort the whole load.
func LoadPaths(ctx context.Context, paths []string, opts Options) (*model.LogSource, error) {
	if len(paths) == 1 {
		return LoadFromPath(ctx, paths[0], opts)
	}
	root := model.NewGroup("files")
	for _, path := range paths {
		src, err := LoadFromPath(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		root.Add(src)
	}
	return root, nil
}

// Result is the outcome of an asynchronous load.
type Result struct {
	Source *model.LogSource
	Err    error
}

// LoadAsync loads paths on a new goroutine. The returned channel delivers
// exactly one Result and is then closed.
func LoadAsync(ctx context.Context, paths []string, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		src, err := LoadPaths(ctx, paths, opts)
		ch <- Result{Source: src, Err: err}
	}()
	return ch
}
