package parser

import (
	"io"
	"log/slog"
)

// Parser consumes a log stream and collects the entries it contains.
//
// Write never fails on malformed input; problems are counted and reported
// through the Result. Finish finalizes a record cut off by the end of the
// stream and must be called exactly once.
type Parser interface {
	io.Writer

	Finish() *Result
}

// MemberEnder is implemented by parsers whose records must not run from
// one member of a ConcatReader into the next.
type MemberEnder interface {
	// EndMember finalizes the record in progress at the end of a member.
	EndMember()
}

// New creates a parser for the given format. A nil logger uses slog.Default.
func New(format Format, logger *slog.Logger) (Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("format", string(format))

	switch format {
	case FormatGlog:
		return NewGlogParser(logger), nil
	case FormatXlog:
		return NewXlogParser(logger), nil
	case FormatRDS:
		return NewRDSParser(logger), nil
	case FormatScanLib:
		return NewScanLibParser(logger), nil
	}
	return nil, &UnknownFormatError{Format: format}
}
