package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// LineMatcher matches record lines and parses the timestamp held in the
// first capture group.
type LineMatcher struct {
	pattern *regexp.Regexp
	layout  string
}

// NewLineMatcher creates a matcher. The pattern's first capture group must
// hold the timestamp.
func NewLineMatcher(pattern *regexp.Regexp, layout string) *LineMatcher {
	return &LineMatcher{
		pattern: pattern,
		layout:  layout,
	}
}

// Match returns the timestamp and all capture groups of a record line.
// Returns an error if the pattern doesn't match or the timestamp is invalid.
func (m *LineMatcher) Match(line string) (time.Time, []string, error) {
	matches := m.pattern.FindStringSubmatch(line)
	if len(matches) < 2 {
		return time.Time{}, nil, fmt.Errorf("line pattern did not match")
	}

	ts, err := time.ParseInLocation(m.layout, matches[1], time.UTC)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parsing timestamp %q: %w", matches[1], err)
	}

	return ts, matches, nil
}

// scanLibLine matches "2020-12-01 15:46:19.122013 (warning) <0x00000001> [] : Foo".
var scanLibLine = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?) \((\w+)\) <([^>]*)> \[([^\]]*)\] ?: ?(.*)$`)

var scanLibLevels = map[string]model.Level{
	"fatal":   model.LevelCritical,
	"error":   model.LevelError,
	"warning": model.LevelWarning,
	"info":    model.LevelInfo,
	"debug":   model.LevelDebug,
	"trace":   model.LevelTrace,
}

// ScanLibParser parses scanner library logs. Lines that do not start a
// record continue the message of the previous one.
type ScanLibParser struct {
	logger  *slog.Logger
	lines   lineBuffer
	matcher *LineMatcher

	entry   model.LogEntry
	message strings.Builder
	pending bool

	entries []model.LogEntry
	stats   Stats
}

// NewScanLibParser creates a scanlib parser.
func NewScanLibParser(logger *slog.Logger) *ScanLibParser {
	return &ScanLibParser{
		logger:  logger,
		matcher: NewLineMatcher(scanLibLine, RDSTimeLayout),
	}
}

// Write implements io.Writer.
func (p *ScanLibParser) Write(b []byte) (int, error) {
	p.lines.write(b, p.parseLine)
	return len(b), nil
}

// Finish implements Parser.
func (p *ScanLibParser) Finish() *Result {
	p.lines.flush(p.parseLine)
	p.completeEntry()
	return &Result{Format: FormatScanLib, Entries: p.entries, Stats: p.stats}
}

func (p *ScanLibParser) parseLine(raw []byte) {
	line := strings.ToValidUTF8(string(trimCR(raw)), "\uFFFD")

	ts, groups, err := p.matcher.Match(line)
	if err != nil {
		if !p.pending {
			p.stats.InvalidBytes += len(raw) + 1
			return
		}
		p.message.WriteByte('\n')
		p.message.WriteString(line)
		return
	}

	p.completeEntry()
	p.entry = model.NewLogEntry()
	p.entry.Timestamp = ts
	p.pending = true

	if level, ok := scanLibLevels[strings.ToLower(groups[2])]; ok {
		p.entry.Severity = level
	} else {
		p.stats.MalformedFields++
		p.logger.Debug("malformed field", "field", "severity", "value", groups[2])
	}
	if groups[3] != "" {
		p.entry.SetField(model.FieldAddress, model.StringField(groups[3]))
	}
	if groups[4] != "" {
		p.entry.SetField(model.FieldComponent, model.StringField(groups[4]))
	}
	p.message.WriteString(groups[5])
}

func (p *ScanLibParser) completeEntry() {
	if !p.pending {
		return
	}
	p.entry.Message = p.message.String()
	p.entries = append(p.entries, p.entry)
	p.message.Reset()
	p.pending = false
}
