package parser

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// RDSTimeLayout is the record timestamp layout. Fractional seconds are
// optional. The logs carry no zone, UTC is assumed.
const RDSTimeLayout = "2006-01-02 15:04:05"

// Severity spellings seen in the wild. Only these exact casings are accepted.
var rdsLevels = map[string]model.Level{
	"critical": model.LevelCritical, "Fatal": model.LevelCritical, "FATAL": model.LevelCritical,
	"error": model.LevelError, "Error": model.LevelError, "ERROR": model.LevelError,
	"warn": model.LevelWarning, "Warn": model.LevelWarning, "WARN": model.LevelWarning,
	"info": model.LevelInfo, "Info": model.LevelInfo, "INFO": model.LevelInfo,
	"debug": model.LevelDebug, "Debug": model.LevelDebug, "DEBUG": model.LevelDebug,
	"trace": model.LevelTrace, "Trace": model.LevelTrace, "TRACE": model.LevelTrace,
}

// RDSParser parses the pipe-delimited service log format:
//
//	datetime|[errorcode|]severity|source|message
//
// A message runs until the next line whose text up to the first '|' parses
// as a datetime, so messages may span several lines.
type RDSParser struct {
	logger *slog.Logger
	lines  lineBuffer

	entry   model.LogEntry
	message strings.Builder
	pending bool

	entries []model.LogEntry
	stats   Stats
}

// NewRDSParser creates an rds parser.
func NewRDSParser(logger *slog.Logger) *RDSParser {
	return &RDSParser{logger: logger}
}

// ParseRDSTime parses a record timestamp.
func ParseRDSTime(s string) (time.Time, bool) {
	ts, err := time.ParseInLocation(RDSTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Write implements io.Writer.
func (p *RDSParser) Write(b []byte) (int, error) {
	p.lines.write(b, p.parseLine)
	return len(b), nil
}

// Finish implements Parser.
func (p *RDSParser) Finish() *Result {
	p.lines.flush(p.parseLine)
	p.completeEntry()
	return &Result{Format: FormatRDS, Entries: p.entries, Stats: p.stats}
}

func (p *RDSParser) parseLine(raw []byte) {
	line := strings.ToValidUTF8(string(trimCR(raw)), "\uFFFD")

	if head, rest, ok := strings.Cut(line, "|"); ok {
		if ts, ok := ParseRDSTime(head); ok {
			p.completeEntry()
			p.startEntry(ts, rest)
			return
		}
	}

	if !p.pending {
		p.stats.InvalidBytes += len(raw) + 1
		return
	}
	p.message.WriteByte('\n')
	p.message.WriteString(line)
}

// startEntry parses the fields following the datetime. A numeric first
// field is an error code and is followed by the severity; otherwise the
// first field is the severity itself.
func (p *RDSParser) startEntry(ts time.Time, rest string) {
	p.entry = model.NewLogEntry()
	p.entry.Timestamp = ts
	p.pending = true

	tok, rest, ok := strings.Cut(rest, "|")
	if !ok {
		p.malformed("severity", tok)
		p.message.WriteString(tok)
		return
	}

	if code, err := strconv.ParseUint(strings.TrimLeft(tok, " "), 10, 32); err == nil {
		p.entry.SetField(model.FieldErrorCode, model.UInt32Field(uint32(code)))
		if tok, rest, ok = strings.Cut(rest, "|"); !ok {
			p.malformed("severity", tok)
			p.message.WriteString(tok)
			return
		}
		p.setSeverity(tok)
	} else if level, ok := rdsLevels[tok]; ok {
		p.entry.Severity = level
	} else {
		// Neither code nor severity: the next field is taken as severity.
		p.malformed("error code or severity", tok)
		if tok, rest, ok = strings.Cut(rest, "|"); !ok {
			p.message.WriteString(tok)
			return
		}
		p.setSeverity(tok)
	}

	// The source field is not kept.
	_, msg, ok := strings.Cut(rest, "|")
	if !ok {
		p.malformed("source", rest)
		msg = rest
	}
	p.message.WriteString(msg)
}

func (p *RDSParser) setSeverity(tok string) {
	if level, ok := rdsLevels[tok]; ok {
		p.entry.Severity = level
	} else {
		p.malformed("severity", tok)
	}
}

func (p *RDSParser) completeEntry() {
	if !p.pending {
		return
	}
	p.entry.Message = p.message.String()
	p.entries = append(p.entries, p.entry)
	p.message.Reset()
	p.pending = false
}

func (p *RDSParser) malformed(field, value string) {
	p.stats.MalformedFields++
	p.logger.Debug("malformed field", "field", field, "value", value)
}
