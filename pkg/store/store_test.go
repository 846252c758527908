package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// newStore creates n entries one second apart, alternating info (even
// offsets) and error (odd offsets).
func newStore(n int) *Store {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Timestamp: time.Unix(int64(i), 0).UTC(),
			Severity:  model.LevelInfo,
			Message:   fmt.Sprintf("entry %d", i),
		}
		if i%2 == 1 {
			entries[i].Severity = model.LevelError
		}
	}
	return New(entries)
}

func severityStore() *Store {
	var entries []Entry
	for i, level := range model.Levels {
		entries = append(entries, Entry{
			Timestamp: time.Unix(int64(i), 0).UTC(),
			Severity:  level,
			Message:   level.String(),
		})
	}
	return New(entries)
}

func hideErrors(s *Store) {
	s.SetSeverityVisible(model.LevelError, false)
}

func visibleOffsets(s *Store) []int {
	var offs []int
	for off := range s.All() {
		offs = append(offs, off)
	}
	return offs
}

func rowOffsets(s *Store, height int) []int {
	var offs []int
	for off := range s.Rows(height) {
		offs = append(offs, off)
	}
	return offs
}

func checkLinks(t *testing.T, s *Store) {
	t.Helper()
	if err := linkError(s); err != nil {
		t.Error(err)
	}
}

// linkError walks the visible list in both directions.
func linkError(s *Store) error {
	var want []int
	for i := range s.Len() {
		if s.At(i).Visible() {
			want = append(want, i)
		}
	}
	if len(want) != s.VisibleCount() {
		return fmt.Errorf("VisibleCount() = %d, want %d", s.VisibleCount(), len(want))
	}
	if len(want) == 0 {
		return nil
	}

	off, _ := s.FirstVisible()
	for i, w := range want {
		e := s.At(off)
		if off != w || int(e.Rank) != i {
			return fmt.Errorf("forward step %d at offset %d rank %d, want offset %d", i, off, e.Rank, w)
		}
		off = int(e.next)
	}
	if last, _ := s.LastVisible(); off != last || int(s.At(last).next) != last {
		return fmt.Errorf("last entry %d does not loop onto itself", last)
	}

	off, _ = s.LastVisible()
	for i := len(want) - 1; i >= 0; i-- {
		if off != want[i] {
			return fmt.Errorf("backward step at offset %d, want %d", off, want[i])
		}
		off = int(s.At(off).prev)
	}
	if first, _ := s.FirstVisible(); off != first || int(s.At(first).prev) != first {
		return fmt.Errorf("first entry %d does not loop onto itself", first)
	}
	return nil
}

func TestNew(t *testing.T) {
	s := newStore(5)
	if s.Len() != 5 || s.VisibleCount() != 5 {
		t.Fatalf("Len() = %d, VisibleCount() = %d, want 5, 5", s.Len(), s.VisibleCount())
	}
	if s.ViewportOffset() != 0 {
		t.Errorf("ViewportOffset() = %d, want 0", s.ViewportOffset())
	}
	checkLinks(t, s)
}

func TestStore_Empty(t *testing.T) {
	s := New(nil)

	if s.Scroll(5, 3) || s.Scroll(-5, 3) {
		t.Error("Scroll() on empty store should be a no-op")
	}
	if got := s.PercentageToOffset(0.5, 3); got != 0 {
		t.Errorf("PercentageToOffset() = %d, want 0", got)
	}
	if got := s.ScrollPercentage(3); got != 0 {
		t.Errorf("ScrollPercentage() = %v, want 0", got)
	}
	if _, ok := s.RelToAbs(0); ok {
		t.Error("RelToAbs() on empty store should fail")
	}
	if got := rowOffsets(s, 3); len(got) != 0 {
		t.Errorf("Rows() = %v, want none", got)
	}
	if s.At(0) != nil {
		t.Error("At(0) on empty store should be nil")
	}
	s.SetSearch("x")
	s.Click(0, Modifiers{})
	if !s.Selection().Empty() {
		t.Error("click on empty store should not select")
	}
}

func TestFilter_Severity(t *testing.T) {
	s := newStore(6)
	hideErrors(s)

	if got := fmt.Sprint(visibleOffsets(s)); got != "[0 2 4]" {
		t.Errorf("visible = %s, want [0 2 4]", got)
	}
	if s.At(1).Hidden != HiddenBySeverity {
		t.Errorf("Hidden = %b, want %b", s.At(1).Hidden, HiddenBySeverity)
	}
	checkLinks(t, s)

	s.SetSeverityVisible(model.LevelError, true)
	if s.VisibleCount() != 6 {
		t.Errorf("VisibleCount() = %d, want 6", s.VisibleCount())
	}
	checkLinks(t, s)
}

func TestFilter_Composition(t *testing.T) {
	s := newStore(8)
	// entries 4..7 belong to source 1
	for i := 4; i < 8; i++ {
		s.At(i).SourceID = 1
	}

	hideErrors(s)
	s.SetSourceVisible(1, 1, false)
	if got := fmt.Sprint(visibleOffsets(s)); got != "[0 2]" {
		t.Errorf("visible = %s, want [0 2]", got)
	}

	// Showing the source again leaves its errors hidden.
	s.SetSourceVisible(1, 1, true)
	if got := fmt.Sprint(visibleOffsets(s)); got != "[0 2 4 6]" {
		t.Errorf("visible = %s, want [0 2 4 6]", got)
	}
	if s.At(5).Hidden != HiddenBySeverity {
		t.Errorf("entry 5 Hidden = %b, want %b", s.At(5).Hidden, HiddenBySeverity)
	}
	checkLinks(t, s)
}

func TestFilter_HideAll(t *testing.T) {
	s := newStore(4)
	s.Filter(func(*Entry) bool { return true }, false, HiddenByFilter)

	if s.VisibleCount() != 0 {
		t.Fatalf("VisibleCount() = %d, want 0", s.VisibleCount())
	}
	if _, ok := s.FirstVisible(); ok {
		t.Error("FirstVisible() should fail with nothing visible")
	}
	if s.Scroll(1, 2) {
		t.Error("Scroll() with nothing visible should be a no-op")
	}
	if got := s.ScrollPercentage(2); got != 0 {
		t.Errorf("ScrollPercentage() = %v, want 0", got)
	}

	s.Filter(func(*Entry) bool { return true }, true, HiddenByFilter)
	if s.VisibleCount() != 4 || s.ViewportOffset() != 0 {
		t.Errorf("after reset VisibleCount() = %d, ViewportOffset() = %d", s.VisibleCount(), s.ViewportOffset())
	}
	checkLinks(t, s)
}

func TestSetSearch(t *testing.T) {
	s := newStore(12)

	s.SetSearch("entry 1")
	if got := fmt.Sprint(visibleOffsets(s)); got != "[1 10 11]" {
		t.Errorf("visible = %s, want [1 10 11]", got)
	}
	s.SetSearch("entry 11")
	if got := fmt.Sprint(visibleOffsets(s)); got != "[11]" {
		t.Errorf("visible = %s, want [11]", got)
	}
	s.SetSearch("")
	if s.VisibleCount() != 12 {
		t.Errorf("VisibleCount() = %d, want 12", s.VisibleCount())
	}
	checkLinks(t, s)
}

func TestFilter_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	build := func(levels []uint8) *Store {
		entries := make([]Entry, len(levels))
		for i, l := range levels {
			entries[i] = Entry{Timestamp: time.Unix(int64(i), 0), Severity: model.Level(l)}
		}
		return New(entries)
	}
	visibleSet := func(s *Store) string {
		return fmt.Sprint(visibleOffsets(s))
	}

	properties.Property("filtering twice equals filtering once", prop.ForAll(
		func(levels []uint8, level uint8, active bool) bool {
			s := build(levels)
			s.SetHeight(3)
			s.SetSeverityVisible(model.Level(level), false)
			pred := func(e *Entry) bool { return e.Severity >= model.Level(level) }
			s.Filter(pred, active, HiddenByFilter)
			once := visibleSet(s)
			s.Filter(pred, active, HiddenByFilter)
			return visibleSet(s) == once && linkError(s) == nil
		},
		gen.SliceOf(gen.UInt8Range(0, 5)),
		gen.UInt8Range(0, 5),
		gen.Bool(),
	))

	properties.Property("two masks hide the union", prop.ForAll(
		func(levels []uint8, a, b uint8) bool {
			s := build(levels)
			s.SetSeverityVisible(model.Level(a), false)
			s.Filter(func(e *Entry) bool { return e.Severity == model.Level(b) }, false, HiddenByFilter)
			for off := range s.Len() {
				sev := s.At(off).Severity
				hidden := sev == model.Level(a) || sev == model.Level(b)
				if s.At(off).Visible() == hidden {
					return false
				}
			}
			s.SetSeverityVisible(model.Level(a), true)
			for off := range s.Len() {
				if s.At(off).Severity == model.Level(b) && s.At(off).Visible() {
					return false
				}
			}
			return linkError(s) == nil
		},
		gen.SliceOf(gen.UInt8Range(0, 5)),
		gen.UInt8Range(0, 5),
		gen.UInt8Range(0, 5),
	))

	properties.Property("scrolling never passes the last page", prop.ForAll(
		func(levels []uint8, hidden uint8, delta int, height int) bool {
			s := build(levels)
			s.SetSeverityVisible(model.Level(hidden), false)
			s.Scroll(delta, height)
			if s.VisibleCount() == 0 {
				return s.ScrollPercentage(height) == 0
			}
			rank := int(s.At(s.ViewportOffset()).Rank)
			if s.VisibleCount() <= height {
				return rank == 0
			}
			p := s.ScrollPercentage(height)
			return rank <= s.VisibleCount()-height && p >= 0 && p <= 1
		},
		gen.SliceOf(gen.UInt8Range(0, 5)),
		gen.UInt8Range(0, 5),
		gen.IntRange(-50, 50),
		gen.IntRange(1, 10),
	))

	properties.Property("a changed height keeps the viewport on the last page", prop.ForAll(
		func(levels []uint8, delta int, h1 int, h2 int, render bool) bool {
			s := build(levels)
			s.Scroll(delta, h1)
			if render {
				for range s.Rows(h2) {
				}
			} else {
				s.Scroll(delta, h2)
			}
			if s.VisibleCount() == 0 {
				return true
			}
			rank := int(s.At(s.ViewportOffset()).Rank)
			return rank <= max(s.VisibleCount()-h2, 0)
		},
		gen.SliceOf(gen.UInt8Range(0, 5)),
		gen.IntRange(0, 50),
		gen.IntRange(1, 10),
		gen.IntRange(1, 20),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestScroll(t *testing.T) {
	s := newStore(10)

	if s.Scroll(-1, 4) {
		t.Error("Scroll(-1) at top should be a no-op")
	}
	if !s.Scroll(2, 4) || s.ViewportOffset() != 2 {
		t.Errorf("Scroll(2) viewport = %d, want 2", s.ViewportOffset())
	}
	if !s.Scroll(100, 4) || s.ViewportOffset() != 6 {
		t.Errorf("Scroll(100) viewport = %d, want 6", s.ViewportOffset())
	}
	if s.Scroll(1, 4) {
		t.Error("Scroll(1) at bottom should be a no-op")
	}
	if !s.Scroll(-3, 4) || s.ViewportOffset() != 3 {
		t.Errorf("Scroll(-3) viewport = %d, want 3", s.ViewportOffset())
	}
	if got := fmt.Sprint(rowOffsets(s, 4)); got != "[3 4 5 6]" {
		t.Errorf("Rows() = %s, want [3 4 5 6]", got)
	}
}

func TestScroll_FitsViewport(t *testing.T) {
	s := severityStore()

	if s.Scroll(10, 6) {
		t.Error("Scroll() should be a no-op when all entries fit")
	}
	if got := s.ScrollPercentage(6); got != 0 {
		t.Errorf("ScrollPercentage(6) = %v, want 0", got)
	}

	if !s.Scroll(10, 3) {
		t.Fatal("Scroll(10, 3) should move the viewport")
	}
	if got := fmt.Sprint(rowOffsets(s, 3)); got != "[3 4 5]" {
		t.Errorf("Rows(3) = %s, want [3 4 5]", got)
	}
	if got := s.ScrollPercentage(3); got != 1.0 {
		t.Errorf("ScrollPercentage(3) = %v, want 1.0", got)
	}
	if got := s.ScrollPercentage(6); got != 0 {
		t.Errorf("ScrollPercentage(6) = %v, want 0", got)
	}
}

func TestScroll_GrowingHeight(t *testing.T) {
	s := newStore(10)
	if !s.Scroll(100, 3) || s.ViewportOffset() != 7 {
		t.Fatalf("Scroll(100, 3) viewport = %d, want 7", s.ViewportOffset())
	}

	// Five rows no longer fit below rank 7.
	if !s.Scroll(1, 5) {
		t.Error("Scroll(1, 5) should pull the viewport back")
	}
	if s.ViewportOffset() != 5 {
		t.Errorf("viewport = %d, want 5", s.ViewportOffset())
	}

	s.Scroll(100, 2)
	if got := fmt.Sprint(rowOffsets(s, 4)); got != "[6 7 8 9]" {
		t.Errorf("Rows(4) = %s, want [6 7 8 9]", got)
	}
	if got := fmt.Sprint(rowOffsets(s, 20)); got != "[0 1 2 3 4 5 6 7 8 9]" {
		t.Errorf("Rows(20) = %s, want all entries", got)
	}
}

func TestScroll_SkipsHidden(t *testing.T) {
	s := newStore(10)
	hideErrors(s)

	if !s.Scroll(1, 2) || s.ViewportOffset() != 2 {
		t.Errorf("viewport = %d, want 2", s.ViewportOffset())
	}
	if !s.Scroll(10, 2) || s.ViewportOffset() != 6 {
		t.Errorf("viewport = %d, want 6", s.ViewportOffset())
	}
}

func TestPercentageToOffset(t *testing.T) {
	s := newStore(11)

	tests := []struct {
		p      float64
		height int
		want   int
	}{
		{0, 1, 0},
		{0.5, 1, 5},
		{1, 1, 10},
		{1, 6, 5},
		{0.44, 1, 4},
		{0.46, 1, 5},
		{2, 1, 10},
		{-1, 1, 0},
		{0.5, 11, 0},
		{0.5, 20, 0},
		{0.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%d", tt.p, tt.height), func(t *testing.T) {
			if got := s.PercentageToOffset(tt.p, tt.height); got != tt.want {
				t.Errorf("PercentageToOffset(%v, %d) = %d, want %d", tt.p, tt.height, got, tt.want)
			}
		})
	}

	hideErrors(s)
	// visible: 0 2 4 6 8 10
	if got := s.PercentageToOffset(1, 2); got != 8 {
		t.Errorf("PercentageToOffset(1, 2) = %d, want 8", got)
	}
}

func TestSeekPercentage(t *testing.T) {
	s := newStore(11)

	if !s.SeekPercentage(0.5, 1) || s.ViewportOffset() != 5 {
		t.Errorf("viewport = %d, want 5", s.ViewportOffset())
	}
	if got := s.ScrollPercentage(1); got != 0.5 {
		t.Errorf("ScrollPercentage() = %v, want 0.5", got)
	}
	if s.SeekPercentage(0.5, 1) {
		t.Error("seeking to the current position should report no change")
	}
	if !s.SeekPercentage(0.3, 20) || s.ViewportOffset() != 0 {
		t.Errorf("viewport = %d, want 0 when everything fits", s.ViewportOffset())
	}
}

func TestRelAbs(t *testing.T) {
	s := newStore(10)
	hideErrors(s)
	s.Scroll(1, 3)

	off, ok := s.RelToAbs(1)
	if !ok || off != 4 {
		t.Errorf("RelToAbs(1) = %d, %v, want 4, true", off, ok)
	}
	if _, ok := s.RelToAbs(4); ok {
		t.Error("RelToAbs() past the last entry should fail")
	}
	if _, ok := s.RelToAbs(-1); ok {
		t.Error("RelToAbs(-1) should fail")
	}

	row, ok := s.AbsToRel(6)
	if !ok || row != 2 {
		t.Errorf("AbsToRel(6) = %d, %v, want 2, true", row, ok)
	}
	if _, ok := s.AbsToRel(0); ok {
		t.Error("AbsToRel() above the viewport should fail")
	}
	if _, ok := s.AbsToRel(3); ok {
		t.Error("AbsToRel() of a hidden entry should fail")
	}
	if _, ok := s.AbsToRel(99); ok {
		t.Error("AbsToRel() out of range should fail")
	}
}

func TestFilter_KeepsTopRow(t *testing.T) {
	s := newStore(10)
	s.Scroll(2, 4)

	hideErrors(s)
	if s.ViewportOffset() != 2 {
		t.Errorf("viewport = %d, want 2", s.ViewportOffset())
	}
}

func TestFilter_KeepsAnchorRow(t *testing.T) {
	s := newStore(10)
	s.Scroll(2, 4)
	s.Click(2, Modifiers{})
	if a, _ := s.Anchor(); a != 4 {
		t.Fatalf("anchor = %d, want 4", a)
	}

	hideErrors(s)
	// Entry 4 stays in row 2: rows are 0 2 4 6.
	if s.ViewportOffset() != 0 {
		t.Errorf("viewport = %d, want 0", s.ViewportOffset())
	}
	if row, _ := s.AbsToRel(4); row != 2 {
		t.Errorf("anchor row = %d, want 2", row)
	}
}

func TestFilter_HiddenAnchorSnapsForward(t *testing.T) {
	s := newStore(20)
	s.Scroll(7, 4)

	hideErrors(s)
	if s.ViewportOffset() != 8 {
		t.Errorf("viewport = %d, want 8", s.ViewportOffset())
	}
}

func TestFilter_HiddenAnchorHoldsViewport(t *testing.T) {
	s := newStore(20)
	s.Scroll(4, 4)
	s.Click(1, Modifiers{})

	hideErrors(s)
	if s.ViewportOffset() != 4 {
		t.Errorf("viewport = %d, want 4", s.ViewportOffset())
	}
}

func TestFilter_HiddenAnchorFallsBackToLast(t *testing.T) {
	s := newStore(10)
	s.Scroll(100, 1)
	if s.ViewportOffset() != 9 {
		t.Fatalf("viewport = %d, want 9", s.ViewportOffset())
	}

	hideErrors(s)
	if s.ViewportOffset() != 8 {
		t.Errorf("viewport = %d, want 8", s.ViewportOffset())
	}
}

func TestFilter_ClampsToLastPage(t *testing.T) {
	s := newStore(10)
	s.Scroll(6, 4)

	hideErrors(s)
	// Five entries remain, so the top row can be rank 1 at most.
	if s.ViewportOffset() != 2 {
		t.Errorf("viewport = %d, want 2", s.ViewportOffset())
	}
}

func TestAnchorDelta(t *testing.T) {
	s := newStore(10)

	if _, ok := s.AnchorDelta(3); ok {
		t.Error("AnchorDelta() without anchor should fail")
	}
	s.SetAnchor(5)
	d, ok := s.AnchorDelta(2)
	if !ok || d != -3*time.Second {
		t.Errorf("AnchorDelta(2) = %v, %v, want -3s, true", d, ok)
	}
	s.SetAnchor(-1)
	if _, ok := s.Anchor(); ok {
		t.Error("SetAnchor(-1) should clear the anchor")
	}
}

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "+0D 00:00:00.000"},
		{1500 * time.Millisecond, "+0D 00:00:01.500"},
		{-(26*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond), "-1D 02:03:04.005"},
		{999 * time.Microsecond, "+0D 00:00:00.000"},
		{49 * time.Hour, "+2D 01:00:00.000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDelta(tt.d); got != tt.want {
				t.Errorf("FormatDelta(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFromTree(t *testing.T) {
	s, tree := FromTree(sampleTree())

	if s.Len() != 5 || tree.ChildCount != 5 {
		t.Fatalf("Len() = %d, ChildCount = %d, want 5", s.Len(), tree.ChildCount)
	}
	controller := tree.Lookup("Controller")
	s.SetSourceVisible(controller.ID, controller.LastID, false)
	if got := s.VisibleCount(); got != 2 {
		t.Errorf("VisibleCount() = %d, want 2", got)
	}
}
