package season

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---- Current classification ----

// TestCurrent_InsideConfiguredSeason: a date inside Season 2's bounds
// resolves to the configured window, not the generic fallback.
func TestCurrent_InsideConfiguredSeason(t *testing.T) {
	w := Default().Current(date(2026, time.February, 15))
	if w.Name != "Season 2 (Demos)" {
		t.Errorf("current season = %q, want Season 2 (Demos)", w.Name)
	}
}

// TestCurrent_BoundaryDays: both boundary days of Season 2 are inside it.
func TestCurrent_BoundaryDays(t *testing.T) {
	tbl := Default()
	for _, d := range []time.Time{date(2026, time.January, 1), date(2026, time.March, 31)} {
		if w := tbl.Current(d); w.Name != "Season 2 (Demos)" {
			t.Errorf("Current(%s) = %q, want Season 2 (Demos)", d.Format("2006-01-02"), w.Name)
		}
	}
}

// TestCurrent_FallbackQuarterNaming: outside every bounded window the
// season is named after the calendar quarter but spans the whole year.
func TestCurrent_FallbackQuarterNaming(t *testing.T) {
	w := Default().Current(date(2026, time.August, 23))
	if w.Name != "Season 3 2026" {
		t.Errorf("fallback season = %q, want Season 3 2026", w.Name)
	}
	if w.Start == nil || !w.Start.Equal(date(2026, time.January, 1)) {
		t.Errorf("fallback start = %v, want 2026-01-01", w.Start)
	}
	if w.End == nil || !w.End.Equal(date(2026, time.December, 31)) {
		t.Errorf("fallback end = %v, want 2026-12-31", w.End)
	}
}

// TestCurrent_LegacyWindowNeverCurrent: dates before 2026 fall into the
// open-ended Season 1 window for filtering purposes, but Current must
// skip it and fall back to the generic year window instead.
func TestCurrent_LegacyWindowNeverCurrent(t *testing.T) {
	w := Default().Current(date(2025, time.June, 1))
	if w.Name != "Season 2 2025" {
		t.Errorf("current season = %q, want Season 2 2025", w.Name)
	}
}

// ---- Window bounds ----

// TestBounds_HalfOpen: the inclusive end day widens to midnight of the
// following day so timestamp predicates catch the whole day.
func TestBounds_HalfOpen(t *testing.T) {
	w := Window{Name: "s", Start: datePtr(2026, time.January, 1), End: datePtr(2026, time.March, 31)}
	from, to := w.Bounds()
	if from == nil || !from.Equal(date(2026, time.January, 1)) {
		t.Errorf("from = %v, want 2026-01-01T00:00:00Z", from)
	}
	if to == nil || !to.Equal(date(2026, time.April, 1)) {
		t.Errorf("to = %v, want 2026-04-01T00:00:00Z", to)
	}
}

// TestContains_EndOfDay: a timestamp late on the end day is inside the
// window; midnight of the next day is outside.
func TestContains_EndOfDay(t *testing.T) {
	w := Window{Name: "s", Start: datePtr(2026, time.January, 1), End: datePtr(2026, time.March, 31)}
	if !w.Contains(time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("23:59:59 on the end day should be inside the window")
	}
	if w.Contains(date(2026, time.April, 1)) {
		t.Error("midnight after the end day should be outside the window")
	}
}

// TestContains_UnboundedStart: the legacy window accepts arbitrarily old
// dates but respects its end bound.
func TestContains_UnboundedStart(t *testing.T) {
	w := Window{Name: "legacy", End: datePtr(2025, time.December, 31)}
	if !w.Contains(date(2019, time.May, 5)) {
		t.Error("unbounded start should accept old dates")
	}
	if w.Contains(date(2026, time.January, 1)) {
		t.Error("date past the end bound should be outside")
	}
}

// ---- Table lookup and loading ----

func TestByName_Unknown(t *testing.T) {
	_, err := Default().ByName("Season 99")
	if !errors.Is(err, ErrUnknownSeason) {
		t.Errorf("err = %v, want ErrUnknownSeason", err)
	}
}

func TestByName_Known(t *testing.T) {
	w, err := Default().ByName("Season 1 (Manual)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != nil {
		t.Errorf("Season 1 start = %v, want unbounded", w.Start)
	}
}

// TestLoad_File: a YAML table replaces the built-in one, including a
// window with an omitted start date.
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasons.yaml")
	doc := `seasons:
  - name: Preseason
    end: 2026-05-31
  - name: Summer Cup
    start: 2026-06-01
    end: 2026-08-31
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(tbl.All()); got != 2 {
		t.Fatalf("loaded %d seasons, want 2", got)
	}
	w := tbl.Current(date(2026, time.July, 10))
	if w.Name != "Summer Cup" {
		t.Errorf("current season = %q, want Summer Cup", w.Name)
	}
	pre, err := tbl.ByName("Preseason")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if pre.Start != nil {
		t.Errorf("Preseason start = %v, want unbounded", pre.Start)
	}
}

// TestLoad_BadDate: malformed dates fail loudly instead of producing a
// silently-wrong window.
func TestLoad_BadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasons.yaml")
	doc := `seasons:
  - name: Broken
    start: 01/06/2026
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a malformed start date")
	}
}

// TestLoad_Empty: a file with no seasons is a configuration error.
func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasons.yaml")
	if err := os.WriteFile(path, []byte("seasons: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for an empty season table")
	}
}
