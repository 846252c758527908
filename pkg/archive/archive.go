// Package archive loads device support archives: zip containers holding the
// logs of every component of a system, optionally encrypted.
package archive

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/yeka/zip"

	"github.com/ccollicutt/sherlog/pkg/logger"
	"github.com/ccollicutt/sherlog/pkg/model"
	"github.com/ccollicutt/sherlog/pkg/parser"
)

// Top-level categories of an archive's source tree.
const (
	CategoryClient     = "Client"
	CategoryController = "Controller"
	CategorySensor     = "Sensor"
	CategoryConnectBox = "Connect Box"
	CategoryProbe      = "Probe"
	CategoryRDS        = "RDS"
	CategoryScanLib    = "ScanLib"
	CategoryUnknown    = "Unknown"
)

const (
	rdsFolder        = "RDS/"
	scanLibPrefix    = "ScanLib_"
	controllerPrefix = "contr_"
	connectBoxPrefix = "connectbox_"
	probePrefix      = "ap21_"
)

// DefaultSensorBoards are the board names whose device logs are filed
// under the Sensor category.
var DefaultSensorBoards = []string{
	"axis", "sensorbase", "telescope", "trigger",
	"adm", "laseroven", "wfd", "dynamicadm", "icbpower",
	"laserctl", "wlanmodule",
}

// DefaultSensorBoardPrefixes match sensor boards that exist in numbered
// variants.
var DefaultSensorBoardPrefixes = []string{"cfm"}

// ErrPasswordRequired is reported for encrypted members when no password
// was configured.
var ErrPasswordRequired = errors.New("member is encrypted and no password is set")

// Options configures how an archive is read.
type Options struct {
	// Password decrypts encrypted members. Empty means none.
	Password string

	// SensorBoards overrides DefaultSensorBoards when non-nil.
	SensorBoards []string

	// SensorBoardPrefixes overrides DefaultSensorBoardPrefixes when non-nil.
	SensorBoardPrefixes []string

	// Sentinel overrides the time before which device timestamps are
	// treated as relative.
	Sentinel time.Time

	Logger *slog.Logger
}

// Open reads the archive at path into a source tree named after the file.
// Only an unreadable archive is an error; unreadable members are logged
// and skipped.
func Open(ctx context.Context, filename string, opts Options) (*model.LogSource, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", filename, err)
	}
	defer zr.Close()

	return build(ctx, &zr.Reader, filepath.Base(filename), opts)
}

// Read reads an archive from r. name becomes the name of the root source.
func Read(ctx context.Context, r io.ReaderAt, size int64, name string, opts Options) (*model.LogSource, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", name, err)
	}
	return build(ctx, zr, name, opts)
}

type deviceLog struct {
	stem     string
	group    string
	index    int
	overview bool
	file     *zip.File
}

type clientLog struct {
	stem string
	name ClientName
	file *zip.File
}

type builder struct {
	opts   Options
	logger *slog.Logger

	boards        map[string]bool
	boardPrefixes []string

	devices []deviceLog
	clients []clientLog
	rds     []*model.LogSource
	scanLib []*model.LogSource
}

func build(ctx context.Context, zr *zip.Reader, name string, opts Options) (*model.LogSource, error) {
	b := &builder{
		opts:          opts,
		logger:        logger.Wrap(opts.Logger).With("archive", name),
		boards:        make(map[string]bool),
		boardPrefixes: DefaultSensorBoardPrefixes,
	}
	boards := opts.SensorBoards
	if boards == nil {
		boards = DefaultSensorBoards
	}
	for _, board := range boards {
		b.boards[board] = true
	}
	if opts.SensorBoardPrefixes != nil {
		b.boardPrefixes = opts.SensorBoardPrefixes
	}

	for _, f := range zr.File {
		if err := b.classify(ctx, f); err != nil {
			return nil, err
		}
	}

	clients, err := b.parseClientLogs(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := b.parseDeviceLogs(ctx)
	if err != nil {
		return nil, err
	}

	root := b.assemble(name, clients, devices)
	b.logger.Info("archive loaded",
		"members", len(zr.File),
		"sources", len(clients)+len(devices)+len(b.rds)+len(b.scanLib),
		"entries", root.EntryCount(),
	)
	return root, nil
}

// classify files a member for parsing. RDS service logs are parsed right
// away; device and client logs are collected for grouping.
func (b *builder) classify(ctx context.Context, f *zip.File) error {
	name := f.Name
	if strings.HasSuffix(name, "/") {
		return nil
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(path.Base(name), ext)
	ext = strings.ToLower(ext)

	if strings.HasPrefix(name, rdsFolder) {
		if ext != ".log" {
			b.logger.Debug("skipping member", "member", name, "reason", "unknown extension in RDS folder")
			return nil
		}
		format := parser.FormatRDS
		if strings.HasPrefix(stem, scanLibPrefix) {
			format = parser.FormatScanLib
		}
		entries, err := b.parse(ctx, format, stem, []parser.Member{b.member(f)})
		if err != nil {
			return err
		}
		leaf := model.NewLeaf(stem, entries)
		if format == parser.FormatScanLib {
			b.scanLib = append(b.scanLib, leaf)
		} else {
			b.rds = append(b.rds, leaf)
		}
		return nil
	}

	switch ext {
	case ".glog":
		group, index := ParseRingName(stem)
		b.devices = append(b.devices, deviceLog{
			stem:     stem,
			group:    group,
			index:    index,
			overview: IsOverview(stem),
			file:     f,
		})
	case ".xlog":
		b.clients = append(b.clients, clientLog{stem: stem, name: ParseClientName(stem), file: f})
	default:
		b.logger.Debug("skipping member", "member", name)
	}
	return nil
}

// parseDeviceLogs concatenates the files of each ring buffer group oldest
// slot first and parses them as one stream. The overview log leads its group.
func (b *builder) parseDeviceLogs(ctx context.Context) ([]*model.LogSource, error) {
	slices.SortFunc(b.devices, func(x, y deviceLog) int {
		return cmp.Or(
			strings.Compare(x.group, y.group),
			compareBool(y.overview, x.overview),
			cmp.Compare(y.index, x.index),
			strings.Compare(y.stem, x.stem),
		)
	})

	var sources []*model.LogSource
	for group := range chunkBy(b.devices, func(d deviceLog) string { return d.group }) {
		members := make([]parser.Member, len(group))
		for i, d := range group {
			members[i] = b.member(d.file)
		}
		name := group[0].group
		entries, err := b.parse(ctx, parser.FormatGlog, name, members)
		if err != nil {
			return nil, err
		}
		sources = append(sources, model.NewLeaf(name, entries))
	}
	return sources, nil
}

// parseClientLogs parses every client log on its own and merges the
// entries of files sharing a channel.
func (b *builder) parseClientLogs(ctx context.Context) ([]*model.LogSource, error) {
	slices.SortFunc(b.clients, func(x, y clientLog) int {
		return cmp.Or(
			strings.Compare(x.name.Channel, y.name.Channel),
			x.name.Time.Compare(y.name.Time),
			strings.Compare(x.stem, y.stem),
		)
	})

	var sources []*model.LogSource
	for group := range chunkBy(b.clients, func(c clientLog) string { return c.name.Channel }) {
		var entries []model.LogEntry
		for _, c := range group {
			e, err := b.parse(ctx, parser.FormatXlog, c.stem, []parser.Member{b.member(c.file)})
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		}
		sources = append(sources, model.NewLeaf(group[0].name.Channel, entries))
	}
	return sources, nil
}

func (b *builder) assemble(name string, clients, devices []*model.LogSource) *model.LogSource {
	client := model.NewGroup(CategoryClient, clients...)
	controller := model.NewGroup(CategoryController)
	sensor := model.NewGroup(CategorySensor)
	connectBox := model.NewGroup(CategoryConnectBox)
	probe := model.NewGroup(CategoryProbe)
	unknown := model.NewGroup(CategoryUnknown)

	for _, src := range devices {
		switch {
		case strings.HasPrefix(src.Name, controllerPrefix):
			src.Name = strings.TrimPrefix(src.Name, controllerPrefix)
			controller.Add(src)
		case b.isSensorLog(src.Name):
			addSensorLog(sensor, src)
		case strings.HasPrefix(src.Name, connectBoxPrefix):
			src.Name = strings.TrimPrefix(src.Name, connectBoxPrefix)
			connectBox.Add(src)
		case strings.HasPrefix(src.Name, probePrefix):
			src.Name = strings.TrimPrefix(src.Name, probePrefix)
			probe.Add(src)
		default:
			unknown.Add(src)
		}
	}

	rds := model.NewGroup(CategoryRDS, b.rds...)
	scanLib := model.NewGroup(CategoryScanLib, b.scanLib...)

	root := model.NewGroup(name, client, controller, sensor)
	for _, g := range []*model.LogSource{connectBox, probe, rds, scanLib, unknown} {
		if len(g.Sources) > 0 {
			root.Add(g)
		}
	}
	for _, g := range root.Sources {
		SortSources(g.Sources)
	}
	for _, board := range sensor.Sources {
		SortSources(board.Sources)
	}

	for _, g := range []*model.LogSource{sensor, connectBox, probe} {
		stats := Correct(g, b.opts.Sentinel, b.logger)
		if stats.Markers > 0 || stats.Conflicts > 0 {
			b.logger.Info("timestamp correction",
				"category", g.Name,
				"corrected", stats.Corrected,
				"markers", stats.Markers,
				"conflicts", stats.Conflicts,
				"failed", stats.Failed,
			)
		}
	}
	return root
}

// addSensorLog files src below the node of its board, renaming it to the
// remainder of the name.
func addSensorLog(sensor, src *model.LogSource) {
	board, leaf, _ := strings.Cut(src.Name, "_")
	node := sensor.Child(board)
	if node == nil {
		node = model.NewGroup(board)
		sensor.Add(node)
	}
	src.Name = leaf
	node.Add(src)
}

func (b *builder) isSensorLog(name string) bool {
	board, _, ok := strings.Cut(name, "_")
	return ok && b.isSensorBoard(board)
}

func (b *builder) isSensorBoard(board string) bool {
	if b.boards[board] {
		return true
	}
	for _, p := range b.boardPrefixes {
		if strings.HasPrefix(board, p) {
			return true
		}
	}
	return false
}

func (b *builder) member(f *zip.File) parser.Member {
	return parser.Member{
		Name: f.Name,
		Open: func() (io.ReadCloser, error) {
			if f.IsEncrypted() {
				if b.opts.Password == "" {
					return nil, ErrPasswordRequired
				}
				f.SetPassword(b.opts.Password)
			}
			return f.Open()
		},
	}
}

// parse reads members as one stream. Member failures are logged; only
// cancellation is returned as an error.
func (b *builder) parse(ctx context.Context, format parser.Format, name string, members []parser.Member) ([]model.LogEntry, error) {
	p, err := parser.New(format, b.logger)
	if err != nil {
		return nil, err
	}
	r := parser.NewConcatReader(members)
	defer r.Close()

	ender, _ := p.(parser.MemberEnder)
	log := logger.Wrap(b.logger)
	r.OnMemberEnd = func(member string, err error) {
		if err != nil {
			log.WithFile(member).WithError(err).Warn("skipping unreadable member", "source", name)
		}
		if ender != nil {
			ender.EndMember()
		}
	}

	res, err := parser.Parse(ctx, p, r, name, b.logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("reading source failed", "source", name)
	}
	return res.Entries, nil
}

// chunkBy yields runs of consecutive elements sharing the same key.
func chunkBy[E any](s []E, key func(E) string) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		for start := 0; start < len(s); {
			end := start + 1
			for end < len(s) && key(s[end]) == key(s[start]) {
				end++
			}
			if !yield(s[start:end]) {
				return
			}
			start = end
		}
	}
}

// compareBool orders false before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}
