package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ccollicutt/sherlog/pkg/datetime"
	"github.com/ccollicutt/sherlog/pkg/model"
)

// xlog delimiters. Records end with '\n'; line breaks inside values are
// encoded as xlogNewline.
const (
	xlogUnitSep   = "˫" // U+02EB
	xlogHeaderSep = "˩" // U+02E9
	xlogNewline   = "˪" // U+02EA
)

var xlogLevels = map[string]model.Level{
	"AppStart":  model.LevelInfo,
	"AppStop":   model.LevelInfo,
	"Info":      model.LevelInfo,
	"Warning":   model.LevelWarning,
	"Error":     model.LevelError,
	"Exception": model.LevelError,
	"Debug":     model.LevelDebug,
}

// xlog headers kept as string custom fields.
var xlogStringFields = map[string]string{
	"<E>":   model.FieldException,
	"<A>":   model.FieldApplication,
	"<C>":   model.FieldChannel,
	"<S>":   model.FieldSession,
	"<PIE>": model.FieldPrivateInnerException,
}

// XlogParser parses the unit-delimited client log format:
//
//	<T>˩637055156092730381˫<L>˩Info˫<M>˩LoggerService: Started.˫<A>˩App˫<I>˩14016˫<C>˩System
type XlogParser struct {
	logger *slog.Logger
	lines  lineBuffer

	entries []model.LogEntry
	stats   Stats
}

// NewXlogParser creates an xlog parser.
func NewXlogParser(logger *slog.Logger) *XlogParser {
	return &XlogParser{logger: logger}
}

// Write implements io.Writer.
func (p *XlogParser) Write(b []byte) (int, error) {
	p.lines.write(b, p.parseLine)
	return len(b), nil
}

// Finish implements Parser.
func (p *XlogParser) Finish() *Result {
	p.lines.flush(p.parseLine)
	return &Result{Format: FormatXlog, Entries: p.entries, Stats: p.stats}
}

func (p *XlogParser) parseLine(raw []byte) {
	line := strings.ToValidUTF8(string(trimCR(raw)), "\uFFFD")
	if strings.TrimSpace(line) == "" {
		return
	}

	entry := model.NewLogEntry()
	units := 0
	for unit := range strings.SplitSeq(line, xlogUnitSep) {
		if unit == "" {
			continue
		}
		header, value, ok := strings.Cut(unit, xlogHeaderSep)
		if !ok {
			p.stats.InvalidBytes += len(unit)
			p.logger.Debug("unit without header", "unit", unit)
			continue
		}
		units++
		p.applyUnit(&entry, header, strings.ReplaceAll(value, xlogNewline, "\n"))
	}
	if units > 0 {
		p.entries = append(p.entries, entry)
	}
}

func (p *XlogParser) applyUnit(entry *model.LogEntry, header, value string) {
	switch header {
	case "<T>":
		ticks, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			p.malformed("timestamp", value, err)
			return
		}
		if ts, ok := datetime.From100ns(ticks); ok {
			entry.Timestamp = ts
		} else {
			p.malformed("timestamp", value, nil)
		}

	case "<L>":
		level, ok := xlogLevels[value]
		if !ok {
			p.malformed("level", value, nil)
			return
		}
		entry.Severity = level

	case "<M>":
		entry.Message = value

	case "<I>":
		pid, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			p.malformed(model.FieldProcessID, value, err)
			return
		}
		entry.SetField(model.FieldProcessID, model.UInt32Field(uint32(pid)))

	case "<EN>":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			p.malformed(model.FieldErrorNumber, value, err)
			return
		}
		entry.SetField(model.FieldErrorNumber, model.Int64Field(n))

	default:
		if name, ok := xlogStringFields[header]; ok {
			entry.SetField(name, model.StringField(value))
		} else {
			p.logger.Debug("unknown unit header", "header", header)
		}
	}
}

func (p *XlogParser) malformed(field, value string, err error) {
	p.stats.MalformedFields++
	p.logger.Debug("malformed field", "field", field, "value", value, "error", err)
}
