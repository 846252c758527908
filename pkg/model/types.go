package model

import "time"

// LogEntry is a single normalized log record.
type LogEntry struct {
	// Timestamp is the record time in UTC with nanosecond precision.
	Timestamp time.Time

	// Severity is the normalized level.
	Severity Level

	// Message is the record text. It may span several lines.
	Message string

	// CustomFields holds format-specific extras such as error codes or
	// session ids. Nil when the record has none.
	CustomFields map[string]CustomField
}

// NewLogEntry returns the entry a parser starts from before any field of
// a record has been read.
func NewLogEntry() LogEntry {
	return LogEntry{
		Timestamp: time.Unix(0, 0).UTC(),
		Severity:  LevelError,
	}
}

// SetField stores a custom field, allocating the map on first use.
func (e *LogEntry) SetField(name string, v CustomField) {
	if e.CustomFields == nil {
		e.CustomFields = make(map[string]CustomField, 2)
	}
	e.CustomFields[name] = v
}

// Field looks up a custom field by name.
func (e *LogEntry) Field(name string) (CustomField, bool) {
	v, ok := e.CustomFields[name]
	return v, ok
}

// LogSource is a node of the source tree. A group holds child sources,
// a leaf holds entries; a node is never both.
type LogSource struct {
	Name    string
	Sources []*LogSource
	Entries []LogEntry

	leaf bool
}

// NewLeaf creates a leaf source owning entries.
func NewLeaf(name string, entries []LogEntry) *LogSource {
	return &LogSource{Name: name, Entries: entries, leaf: true}
}

// NewGroup creates a group source owning children.
func NewGroup(name string, children ...*LogSource) *LogSource {
	return &LogSource{Name: name, Sources: children}
}

// IsLeaf reports whether the source holds entries rather than children.
func (s *LogSource) IsLeaf() bool {
	return s.leaf
}

// Add appends a child to a group.
func (s *LogSource) Add(child *LogSource) {
	s.Sources = append(s.Sources, child)
}

// Child returns the direct child with the given name, or nil.
func (s *LogSource) Child(name string) *LogSource {
	for _, c := range s.Sources {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// EntryCount returns the number of entries in the subtree.
func (s *LogSource) EntryCount() int {
	if s.leaf {
		return len(s.Entries)
	}
	n := 0
	for _, c := range s.Sources {
		n += c.EntryCount()
	}
	return n
}

// Leaves calls fn for every leaf of the subtree in pre-order.
func (s *LogSource) Leaves(fn func(*LogSource)) {
	if s.leaf {
		fn(s)
		return
	}
	for _, c := range s.Sources {
		c.Leaves(fn)
	}
}
