package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ccollicutt/sherlog/pkg/datetime"
	"github.com/ccollicutt/sherlog/pkg/model"
)

const (
	glogSectionBegin = '['
	glogInnerDelim   = '|'
	glogSectionEnd   = ']'
	glogEntryDelim   = ':'
)

type glogState uint8

const (
	glogPreSection       glogState = iota // expect '[', skip line breaks
	glogSectionKind                       // kind up to '|'
	glogSectionValue                      // value up to ']'
	glogSectionValuePost                  // byte after ']' decides
	glogMessageEnd                        // byte after "]:" closing a message
	glogSkipLine                          // invalid input, resume after '\n'
)

type glogKind uint8

const (
	glogKindUnknown glogKind = iota
	glogKindTimestampMs
	glogKindTimestamp100ns
	glogKindSeverity
	glogKindSubSource
	glogKindMessage
	glogKindErrorCode
	glogKindSessionID
)

var glogKinds = map[string]glogKind{
	"tq":  glogKindTimestampMs,
	"tg":  glogKindTimestamp100ns,
	"s":   glogKindSeverity,
	"i":   glogKindSubSource,
	"m":   glogKindMessage,
	"e":   glogKindErrorCode,
	"sid": glogKindSessionID,
}

// glog severity codes. 5 marks unclassified output such as raw dumps; it is
// shown as debug so it never outranks real errors.
var glogSeverities = [...]model.Level{
	0: model.LevelCritical,
	1: model.LevelCritical, // hardware
	2: model.LevelError,
	3: model.LevelWarning,
	4: model.LevelInfo,
	5: model.LevelDebug,
}

// GlogParser parses the bracketed-section device log format:
//
//	[tq|1593185899085][s|4][i|3][m|Motor started]:
//
// Sections of one entry follow each other directly. The entry ends with ':'
// or a line break after the closing bracket of its last section.
type GlogParser struct {
	logger *slog.Logger

	state   glogState
	kind    []byte
	value   []byte
	current glogKind

	entry   model.LogEntry
	pending bool

	entries []model.LogEntry
	stats   Stats
}

// NewGlogParser creates a glog parser.
func NewGlogParser(logger *slog.Logger) *GlogParser {
	return &GlogParser{
		logger: logger,
		entry:  model.NewLogEntry(),
	}
}

// Write implements io.Writer.
func (p *GlogParser) Write(b []byte) (int, error) {
	for _, c := range b {
		p.feed(c)
	}
	return len(b), nil
}

func (p *GlogParser) feed(c byte) {
	switch p.state {
	case glogPreSection:
		switch c {
		case glogSectionBegin:
			p.kind = p.kind[:0]
			p.state = glogSectionKind
		case '\r', '\n':
		default:
			p.stats.InvalidBytes++
			p.state = glogSkipLine
		}

	case glogSkipLine:
		if c == '\n' {
			p.state = glogPreSection
		} else {
			p.stats.InvalidBytes++
		}

	case glogSectionKind:
		switch c {
		case glogInnerDelim:
			p.current = glogKinds[string(p.kind)]
			p.value = p.value[:0]
			p.state = glogSectionValue
		case '\n':
			// A section cut by a line break is dropped; the entry survives.
			p.stats.InvalidBytes += len(p.kind) + 2
			p.completeEntry()
			p.state = glogPreSection
		default:
			p.kind = append(p.kind, c)
		}

	case glogSectionValue:
		if c == glogSectionEnd {
			p.state = glogSectionValuePost
		} else {
			p.value = append(p.value, c)
		}

	case glogSectionValuePost:
		switch {
		case c == glogSectionBegin:
			p.commitField()
			p.kind = p.kind[:0]
			p.state = glogSectionKind
		case c == glogEntryDelim && p.current == glogKindMessage:
			// Messages may contain "]:"; only a following boundary ends them.
			p.state = glogMessageEnd
		case c == glogEntryDelim || c == '\r' || c == '\n':
			p.commitField()
			p.completeEntry()
			p.state = glogPreSection
		case c == glogSectionEnd:
			p.value = append(p.value, glogSectionEnd)
		default:
			p.value = append(p.value, glogSectionEnd, c)
			p.state = glogSectionValue
		}

	case glogMessageEnd:
		switch c {
		case '\r', '\n', glogSectionBegin:
			p.commitField()
			p.completeEntry()
			if c == glogSectionBegin {
				p.kind = p.kind[:0]
				p.state = glogSectionKind
			} else {
				p.state = glogPreSection
			}
		case glogSectionEnd:
			p.value = append(p.value, glogSectionEnd, glogEntryDelim)
			p.state = glogSectionValuePost
		default:
			p.value = append(p.value, glogSectionEnd, glogEntryDelim, c)
			p.state = glogSectionValue
		}
	}
}

// Finish implements Parser.
func (p *GlogParser) Finish() *Result {
	p.EndMember()
	return &Result{Format: FormatGlog, Entries: p.entries, Stats: p.stats}
}

// EndMember implements MemberEnder. A record left open at the end of a ring
// buffer slot is completed instead of absorbing the next slot's first
// sections.
func (p *GlogParser) EndMember() {
	switch p.state {
	case glogSectionValue, glogSectionValuePost, glogMessageEnd:
		p.commitField()
	case glogSectionKind:
		p.stats.InvalidBytes += len(p.kind) + 1
	}
	p.completeEntry()
	p.state = glogPreSection
}

func (p *GlogParser) completeEntry() {
	if !p.pending {
		return
	}
	p.entries = append(p.entries, p.entry)
	p.entry = model.NewLogEntry()
	p.pending = false
}

func (p *GlogParser) commitField() {
	p.pending = true
	value := string(p.value)

	switch p.current {
	case glogKindTimestampMs:
		ms, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			p.malformed("timestamp", value, err)
			return
		}
		if ts, ok := datetime.FromTimestampMs(ms); ok {
			p.entry.Timestamp = ts
		} else {
			p.malformed("timestamp", value, nil)
		}

	case glogKindTimestamp100ns:
		ticks, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			p.malformed("timestamp", value, err)
			return
		}
		if ts, ok := datetime.From100ns(ticks); ok {
			p.entry.Timestamp = ts
		} else {
			p.malformed("timestamp", value, nil)
		}

	case glogKindSeverity:
		code, err := strconv.ParseUint(value, 10, 8)
		if err != nil || code >= uint64(len(glogSeverities)) {
			p.malformed("severity", value, err)
			return
		}
		p.entry.Severity = glogSeverities[code]

	case glogKindSubSource:
		p.setUint32(model.FieldSubSourceID, value)

	case glogKindErrorCode:
		p.setUint32(model.FieldErrorCode, value)

	case glogKindSessionID:
		p.setUint32(model.FieldSessionID, value)

	case glogKindMessage:
		p.entry.Message = strings.ToValidUTF8(value, "\uFFFD")
	}
}

func (p *GlogParser) setUint32(name, value string) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		p.malformed(name, value, err)
		return
	}
	p.entry.SetField(name, model.UInt32Field(uint32(v)))
}

func (p *GlogParser) malformed(field, value string, err error) {
	p.stats.MalformedFields++
	if err != nil {
		p.logger.Debug("malformed field", "field", field, "value", value, "error", err)
	} else {
		p.logger.Debug("malformed field", "field", field, "value", value)
	}
}
