// Package parser turns raw log streams into normalized entries.
//
// Every format is handled by a streaming state machine that accepts input in
// arbitrary chunks through io.Writer and yields its entries from Finish.
package parser

import (
	"fmt"
	"strings"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// Format identifies a log file format.
type Format string

const (
	// FormatGlog is the bracketed-section device log ("[tq|..][s|..][m|..]:").
	FormatGlog Format = "glog"

	// FormatXlog is the unit-delimited client log.
	FormatXlog Format = "xlog"

	// FormatRDS is the pipe-delimited service log.
	FormatRDS Format = "rds"

	// FormatScanLib is the scanner library log.
	FormatScanLib Format = "scanlib"
)

// Formats lists all supported formats.
var Formats = []Format{FormatGlog, FormatXlog, FormatRDS, FormatScanLib}

// FormatForExtension maps a file extension (with or without the leading dot,
// any case) to the format that parses it.
func FormatForExtension(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "glog":
		return FormatGlog, true
	case "xlog":
		return FormatXlog, true
	case "log":
		return FormatRDS, true
	}
	return "", false
}

// Stats summarizes the problems a parser recovered from.
type Stats struct {
	// InvalidBytes counts structurally invalid bytes between records.
	InvalidBytes int

	// MalformedFields counts field values that could not be parsed and
	// were left at their defaults.
	MalformedFields int
}

// Clean reports whether nothing had to be recovered.
func (s Stats) Clean() bool {
	return s.InvalidBytes == 0 && s.MalformedFields == 0
}

// Result is the outcome of parsing one stream.
type Result struct {
	Format  Format
	Entries []model.LogEntry
	Stats   Stats
}

// UnknownFormatError is returned by New for an unsupported format.
type UnknownFormatError struct {
	Format Format
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown log format %q", string(e.Format))
}
