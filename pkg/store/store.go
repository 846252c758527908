// Package store provides the flattened, filterable entry index a viewer
// renders from.
//
// Entries live in one slice ordered by time and are never moved. Visible
// entries are threaded into a doubly linked list through offsets stored in
// the entries themselves; the first entry's previous link and the last
// entry's next link point at the entry itself. Every offset handed out by a
// Store stays valid for its lifetime.
package store

import (
	"fmt"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// Mask holds the reasons an entry is hidden. An entry is visible when its
// mask is zero.
type Mask uint8

const (
	HiddenBySource Mask = 1 << iota
	HiddenBySeverity
	HiddenByFilter
)

// Entry is a log entry as held by a Store.
type Entry struct {
	Timestamp time.Time
	Severity  model.Level
	Message   string
	SourceID  uint32

	Hidden Mask

	// Rank is the position among visible entries. Only meaningful while
	// the entry is visible.
	Rank uint32

	prev uint32
	next uint32
}

// Visible reports whether no filter hides the entry.
func (e *Entry) Visible() bool {
	return e.Hidden == 0
}

// Store is the filterable view over a flattened entry slice. It is not safe
// for concurrent use.
//
// The viewport is identified by the offset of its top entry. Operations that
// take a viewport height remember it; filters use the last height to decide
// which entries were on screen.
type Store struct {
	entries []Entry

	visible int
	first   int
	last    int

	top    int
	height int

	anchor    int
	hasAnchor bool

	selection Selection
}

// New creates a store over entries, which must be ordered by time. The
// store takes ownership of the slice.
func New(entries []Entry) *Store {
	s := &Store{entries: entries}
	s.rebuild(nil)
	s.top = s.first
	return s
}

// FromTree flattens root and creates a store over its entries.
func FromTree(root *model.LogSource) (*Store, *Source) {
	tree, entries := Flatten(root)
	return New(entries), tree
}

// Len returns the number of entries, visible or not.
func (s *Store) Len() int {
	return len(s.entries)
}

// VisibleCount returns the number of visible entries.
func (s *Store) VisibleCount() int {
	return s.visible
}

// At returns the entry at offset, or nil when out of range.
func (s *Store) At(offset int) *Entry {
	if offset < 0 || offset >= len(s.entries) {
		return nil
	}
	return &s.entries[offset]
}

// ViewportOffset returns the offset of the entry in the top row.
func (s *Store) ViewportOffset() int {
	return s.top
}

// FirstVisible returns the offset of the first visible entry.
func (s *Store) FirstVisible() (int, bool) {
	return s.first, s.visible > 0
}

// LastVisible returns the offset of the last visible entry.
func (s *Store) LastVisible() (int, bool) {
	return s.last, s.visible > 0
}

// Height returns the last viewport height passed to the store.
func (s *Store) Height() int {
	return s.height
}

// SetHeight records the viewport height and keeps the viewport within the
// visible entries.
func (s *Store) SetHeight(height int) {
	s.height = max(height, 0)
	s.clampTop()
}

// Filter sets or clears mask on every entry matching pred, then rebuilds
// the visible list. When active is true the matching entries lose mask,
// otherwise they gain it. Entries not matching pred keep their mask, so
// filters using distinct bits do not interfere.
//
// The viewport follows the anchor: the explicit anchor when it was on
// screen, the top row otherwise.
func (s *Store) Filter(pred func(*Entry) bool, active bool, mask Mask) {
	s.update(func(e *Entry) {
		if !pred(e) {
			return
		}
		if active {
			e.Hidden &^= mask
		} else {
			e.Hidden |= mask
		}
	})
}

// SetSourceVisible shows or hides the entries of the sources with ids in
// [first, last], typically a Source's [ID, LastID].
func (s *Store) SetSourceVisible(first, last uint32, visible bool) {
	s.Filter(func(e *Entry) bool {
		return e.SourceID >= first && e.SourceID <= last
	}, visible, HiddenBySource)
}

// SetSeverityVisible shows or hides the entries of one severity.
func (s *Store) SetSeverityVisible(level model.Level, visible bool) {
	s.Filter(func(e *Entry) bool {
		return e.Severity == level
	}, visible, HiddenBySeverity)
}

// SetSearch hides entries whose message does not contain text. The empty
// text shows everything again.
func (s *Store) SetSearch(text string) {
	s.update(func(e *Entry) {
		if text == "" || strings.Contains(e.Message, text) {
			e.Hidden &^= HiddenByFilter
		} else {
			e.Hidden |= HiddenByFilter
		}
	})
}

type viewState struct {
	anchor    int
	anchorRow int
	top       int
	bottom    int
}

// update applies fn to every entry and rebuilds the visible list, keeping
// the viewport on its anchor.
func (s *Store) update(fn func(*Entry)) {
	view, ok := s.captureView()

	s.rebuild(fn)

	if ok {
		s.restoreView(view)
	} else {
		s.top = s.first
	}
	s.clampTop()
}

func (s *Store) captureView() (viewState, bool) {
	if s.visible == 0 {
		return viewState{}, false
	}
	v := viewState{anchor: s.top, top: s.top, bottom: s.top}
	for row := 1; row < s.height; row++ {
		next := int(s.entries[v.bottom].next)
		if next == v.bottom {
			break
		}
		v.bottom = next
	}
	if row, ok := s.anchorRow(); ok {
		v.anchor, v.anchorRow = s.anchor, row
	}
	return v, true
}

// anchorRow returns the viewport row of the explicit anchor if it is on
// screen.
func (s *Store) anchorRow() (int, bool) {
	if !s.hasAnchor || s.anchor >= len(s.entries) {
		return 0, false
	}
	a := &s.entries[s.anchor]
	if !a.Visible() {
		return 0, false
	}
	row := int(a.Rank) - int(s.entries[s.top].Rank)
	if row < 0 || row >= s.height {
		return 0, false
	}
	return row, true
}

func (s *Store) restoreView(v viewState) {
	if s.visible == 0 {
		s.top = s.first
		return
	}

	if s.entries[v.anchor].Visible() {
		s.top = v.anchor
		for range v.anchorRow {
			prev := int(s.entries[s.top].prev)
			if prev == s.top {
				break
			}
			s.top = prev
		}
		return
	}

	prev, hasPrev := s.visibleBefore(v.anchor)
	next, hasNext := s.visibleFrom(v.anchor)
	switch {
	case hasPrev && hasNext && prev >= v.top && next <= v.bottom:
		s.top, _ = s.visibleFrom(v.top)
	case hasNext:
		s.top = next
	default:
		s.top = s.last
	}
}

// clampTop keeps the viewport from showing blank rows past the last
// visible entry.
func (s *Store) clampTop() {
	if s.visible == 0 {
		s.top = s.first
		return
	}
	if s.visible <= s.height {
		s.top = s.first
		return
	}
	if limit := uint32(s.visible - s.height); s.entries[s.top].Rank > limit {
		s.top = s.offsetOfRank(limit)
	}
}

// rebuild applies fn, if any, to every entry and threads the visible
// entries in slice order, assigning ranks, in a single pass.
func (s *Store) rebuild(fn func(*Entry)) {
	var rank uint32
	prev := -1
	for i := range s.entries {
		e := &s.entries[i]
		if fn != nil {
			fn(e)
		}
		if e.Hidden != 0 {
			continue
		}
		e.Rank = rank
		rank++
		if prev < 0 {
			s.first = i
			e.prev = uint32(i)
		} else {
			e.prev = uint32(prev)
			s.entries[prev].next = uint32(i)
		}
		prev = i
	}
	s.visible = int(rank)
	if prev < 0 {
		s.first, s.last = 0, 0
		return
	}
	s.entries[prev].next = uint32(prev)
	s.last = prev
}

func (s *Store) visibleFrom(offset int) (int, bool) {
	for i := max(offset, 0); i < len(s.entries); i++ {
		if s.entries[i].Visible() {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) visibleBefore(offset int) (int, bool) {
	for i := min(offset, len(s.entries)) - 1; i >= 0; i-- {
		if s.entries[i].Visible() {
			return i, true
		}
	}
	return 0, false
}

// offsetOfRank walks the visible list from the nearer end.
func (s *Store) offsetOfRank(rank uint32) int {
	if int(rank) >= s.visible {
		return s.last
	}
	if int(rank) < s.visible/2 {
		off := s.first
		for range rank {
			off = int(s.entries[off].next)
		}
		return off
	}
	off := s.last
	for range uint32(s.visible-1) - rank {
		off = int(s.entries[off].prev)
	}
	return off
}

// Scroll moves the viewport by delta rows, negative values moving up.
// Scrolling down stops once the last visible entry reaches the bottom row.
// A grown height first pulls the viewport back onto the last page. It
// reports whether the viewport moved.
func (s *Store) Scroll(delta, height int) bool {
	if s.visible == 0 {
		s.height = max(height, 0)
		return false
	}
	old := s.top
	s.SetHeight(height)

	if delta < 0 {
		for n := delta; n < 0; n++ {
			prev := int(s.entries[s.top].prev)
			if prev == s.top {
				break
			}
			s.top = prev
		}
		return old != s.top
	}

	if s.visible <= s.height {
		return old != s.top
	}
	limit := uint32(s.visible - s.height)
	for n := delta; n > 0; n-- {
		e := &s.entries[s.top]
		if e.Rank >= limit {
			break
		}
		next := int(e.next)
		if next == s.top {
			break
		}
		s.top = next
	}
	return old != s.top
}

// PercentageToOffset maps a scrollbar position in [0, 1] to the offset of
// the entry that would be in the top row. It returns 0 when all visible
// entries fit into the viewport. Positions outside [0, 1] are clamped.
func (s *Store) PercentageToOffset(p float64, height int) int {
	if s.visible == 0 || height <= 0 || s.visible <= height {
		return 0
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = min(max(p, 0), 1)
	rank := uint32(math.Round(float64(s.visible-height) * p))
	return s.offsetOfRank(rank)
}

// SeekPercentage moves the viewport to a scrollbar position and reports
// whether it moved.
func (s *Store) SeekPercentage(p float64, height int) bool {
	s.height = max(height, 0)
	if s.visible == 0 {
		return false
	}
	old := s.top
	if s.visible <= s.height {
		s.top = s.first
	} else {
		s.top = s.PercentageToOffset(p, height)
	}
	return old != s.top
}

// ScrollPercentage returns the scrollbar position of the viewport in
// [0, 1]. It is 0 when all visible entries fit into the viewport.
func (s *Store) ScrollPercentage(height int) float64 {
	if s.visible == 0 || s.visible <= height {
		return 0
	}
	p := float64(s.entries[s.top].Rank) / float64(s.visible-height)
	return min(p, 1)
}

// RelToAbs returns the offset of the entry shown in a viewport row.
func (s *Store) RelToAbs(row int) (int, bool) {
	if s.visible == 0 || row < 0 {
		return 0, false
	}
	off := s.top
	for range row {
		next := int(s.entries[off].next)
		if next == off {
			return 0, false
		}
		off = next
	}
	return off, true
}

// AbsToRel returns the viewport row an entry is shown in. Rows past the
// viewport height are reported too; callers clip.
func (s *Store) AbsToRel(offset int) (int, bool) {
	e := s.At(offset)
	if e == nil || !e.Visible() || s.visible == 0 {
		return 0, false
	}
	row := int(e.Rank) - int(s.entries[s.top].Rank)
	if row < 0 {
		return 0, false
	}
	return row, true
}

// Rows yields the offsets and entries of the rows of a viewport of the
// given height. The viewport is clamped to the height first.
func (s *Store) Rows(height int) iter.Seq2[int, *Entry] {
	s.SetHeight(height)
	return func(yield func(int, *Entry) bool) {
		if s.visible == 0 {
			return
		}
		off := s.top
		for range height {
			if !yield(off, &s.entries[off]) {
				return
			}
			next := int(s.entries[off].next)
			if next == off {
				return
			}
			off = next
		}
	}
}

// All yields every visible entry in order.
func (s *Store) All() iter.Seq2[int, *Entry] {
	return func(yield func(int, *Entry) bool) {
		if s.visible == 0 {
			return
		}
		for off := s.first; ; {
			if !yield(off, &s.entries[off]) {
				return
			}
			next := int(s.entries[off].next)
			if next == off {
				return
			}
			off = next
		}
	}
}

// Anchor returns the anchor entry, if set.
func (s *Store) Anchor() (int, bool) {
	return s.anchor, s.hasAnchor
}

// SetAnchor makes offset the entry filters keep in place. A negative
// offset clears the anchor.
func (s *Store) SetAnchor(offset int) {
	s.anchor = offset
	s.hasAnchor = offset >= 0 && offset < len(s.entries)
}

// AnchorDelta returns the time from the anchor to the entry at offset.
func (s *Store) AnchorDelta(offset int) (time.Duration, bool) {
	e := s.At(offset)
	if e == nil || !s.hasAnchor {
		return 0, false
	}
	return e.Timestamp.Sub(s.entries[s.anchor].Timestamp), true
}

// FormatDelta renders a duration with millisecond precision, such as
// "-1D 02:03:04.005".
func FormatDelta(d time.Duration) string {
	ms := d.Milliseconds()
	sign := '+'
	if ms < 0 {
		sign = '-'
		ms = -ms
	}
	const (
		msPerSecond = 1000
		msPerMinute = 60 * msPerSecond
		msPerHour   = 60 * msPerMinute
		msPerDay    = 24 * msPerHour
	)
	days := ms / msPerDay
	ms %= msPerDay
	hours := ms / msPerHour
	ms %= msPerHour
	minutes := ms / msPerMinute
	ms %= msPerMinute
	seconds := ms / msPerSecond
	ms %= msPerSecond
	return fmt.Sprintf("%c%dD %02d:%02d:%02d.%03d", sign, days, hours, minutes, seconds, ms)
}
