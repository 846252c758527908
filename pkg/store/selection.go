package store

import (
	"iter"
)

// Modifiers are the keys held during a click.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Selection is a set of entry offsets built by clicks: single offsets, one
// contiguous range, and offsets excluded from that range.
type Selection struct {
	singles  map[int]struct{}
	excluded map[int]struct{}

	low, high int
	hasRange  bool

	pivot    int
	hasPivot bool
}

// Click applies a click on offset. onLine is false for clicks below the
// last row, which only clear the selection when no modifier is held.
//
// Without modifiers the clicked entry becomes the only selection. Ctrl
// toggles the entry, and within the range toggles its exclusion. Shift
// selects the range from the last clicked entry; with Ctrl the singles
// are kept and the clicked entry becomes the new pivot.
func (s *Selection) Click(offset int, onLine bool, mods Modifiers) {
	if !onLine {
		if !mods.Shift && !mods.Ctrl {
			s.Clear()
		}
		return
	}
	s.init()

	switch {
	case !mods.Shift && !mods.Ctrl:
		clear(s.singles)
		clear(s.excluded)
		s.hasRange = false
		s.singles[offset] = struct{}{}
		s.pivot, s.hasPivot = offset, true

	case !mods.Shift:
		toggle(s.singles, offset)
		if s.hasRange && s.low <= offset && offset <= s.high {
			toggle(s.excluded, offset)
		}
		s.pivot, s.hasPivot = offset, true

	default:
		pivot := 0
		if s.hasPivot {
			pivot = s.pivot
		}
		s.low, s.high, s.hasRange = min(pivot, offset), max(pivot, offset), true
		if mods.Ctrl {
			s.pivot, s.hasPivot = offset, true
		} else {
			clear(s.singles)
		}
		clear(s.excluded)
	}
}

// Clear empties the selection. The pivot is kept.
func (s *Selection) Clear() {
	clear(s.singles)
	clear(s.excluded)
	s.hasRange = false
}

// Contains reports whether offset is selected.
func (s *Selection) Contains(offset int) bool {
	_, single := s.singles[offset]
	inRange := s.hasRange && s.low <= offset && offset <= s.high
	_, excluded := s.excluded[offset]
	return (single || inRange) && !excluded
}

// Range returns the selected range, if any.
func (s *Selection) Range() (low, high int, ok bool) {
	return s.low, s.high, s.hasRange
}

// Pivot returns the offset a shift click extends the range from.
func (s *Selection) Pivot() (int, bool) {
	return s.pivot, s.hasPivot
}

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool {
	return len(s.singles) == 0 && !s.hasRange
}

func (s *Selection) init() {
	if s.singles == nil {
		s.singles = make(map[int]struct{})
		s.excluded = make(map[int]struct{})
	}
}

func toggle(set map[int]struct{}, offset int) {
	if _, ok := set[offset]; ok {
		delete(set, offset)
	} else {
		set[offset] = struct{}{}
	}
}

// Selection returns the selection of the store.
func (s *Store) Selection() *Selection {
	return &s.selection
}

// Click applies a click on a viewport row and makes the clicked entry the
// anchor. Rows below the last entry clear the anchor. Rows outside the
// viewport are ignored.
func (s *Store) Click(row int, mods Modifiers) {
	if row < 0 || (s.height > 0 && row >= s.height) {
		return
	}
	offset, ok := s.RelToAbs(row)
	s.selection.Click(offset, ok, mods)
	if ok {
		s.SetAnchor(offset)
	} else {
		s.SetAnchor(-1)
	}
}

// Selected yields the selected visible entries in order.
func (s *Store) Selected() iter.Seq2[int, *Entry] {
	return func(yield func(int, *Entry) bool) {
		for off, e := range s.All() {
			if s.selection.Contains(off) && !yield(off, e) {
				return
			}
		}
	}
}
