// Package season maps calendar dates onto named season windows used to
// scope leaderboard and aggregate queries. The table is small and
// static: a built-in default covers the known seasons, and a YAML file
// can replace it without a rebuild. All calendar arithmetic is done in
// UTC at day granularity.
package season

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownSeason is returned by ByName for names not in the table.
var ErrUnknownSeason = errors.New("unknown season")

const dayLayout = "2006-01-02"

// Window is a named, inclusive calendar date range. A nil Start means
// the window reaches back to the beginning of recorded data; a nil End
// means it is open-ended.
type Window struct {
	Name  string
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window, treating both
// bounds as whole calendar days.
func (w Window) Contains(t time.Time) bool {
	from, to := w.Bounds()
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

// Bounds widens the inclusive day range into half-open timestamps
// [from, to) suitable for range predicates: from is the start day at
// midnight, to is midnight of the day after End. Either may be nil for
// an unbounded side.
func (w Window) Bounds() (from, to *time.Time) {
	if w.Start != nil {
		f := dayStart(*w.Start)
		from = &f
	}
	if w.End != nil {
		t := dayStart(*w.End).AddDate(0, 0, 1)
		to = &t
	}
	return from, to
}

// Table is an ordered list of season windows. Order matters: Current
// returns the first bounded window containing the probe date.
type Table struct {
	windows []Window
}

// Default returns the built-in season table. Season 1 predates demo
// ingestion and has no recorded start; only matches entered manually
// fall into it.
func Default() *Table {
	return &Table{windows: []Window{
		{Name: "Season 1 (Manual)", End: datePtr(2025, time.December, 31)},
		{Name: "Season 2 (Demos)", Start: datePtr(2026, time.January, 1), End: datePtr(2026, time.March, 31)},
	}}
}

// Load reads a season table from a YAML file of the form:
//
//	seasons:
//	  - name: Season 2 (Demos)
//	    start: 2026-01-01
//	    end: 2026-03-31
//
// start and end are optional; omitting one leaves that side unbounded.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seasons file: %w", err)
	}
	var doc struct {
		Seasons []struct {
			Name  string `yaml:"name"`
			Start string `yaml:"start"`
			End   string `yaml:"end"`
		} `yaml:"seasons"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seasons file: %w", err)
	}
	if len(doc.Seasons) == 0 {
		return nil, fmt.Errorf("seasons file %s defines no seasons", path)
	}

	t := &Table{}
	for _, s := range doc.Seasons {
		if s.Name == "" {
			return nil, fmt.Errorf("seasons file %s: season with empty name", path)
		}
		w := Window{Name: s.Name}
		if s.Start != "" {
			d, err := time.ParseInLocation(dayLayout, s.Start, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("season %q: bad start date: %w", s.Name, err)
			}
			w.Start = &d
		}
		if s.End != "" {
			d, err := time.ParseInLocation(dayLayout, s.End, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("season %q: bad end date: %w", s.Name, err)
			}
			w.End = &d
		}
		t.windows = append(t.windows, w)
	}
	return t, nil
}

// Current classifies now into a season. Only fully-bounded windows are
// candidates; open-ended legacy windows never count as current. When no
// configured window matches, a generic fallback named after the quarter
// is produced with whole-year bounds, matching how seasons were labeled
// before the table existed.
func (t *Table) Current(now time.Time) Window {
	now = now.UTC()
	for _, w := range t.windows {
		if w.Start != nil && w.End != nil && w.Contains(now) {
			return w
		}
	}
	quarter := (int(now.Month())-1)/3 + 1
	return Window{
		Name:  fmt.Sprintf("Season %d %d", quarter, now.Year()),
		Start: datePtr(now.Year(), time.January, 1),
		End:   datePtr(now.Year(), time.December, 31),
	}
}

// All returns the configured windows in table order.
func (t *Table) All() []Window {
	out := make([]Window, len(t.windows))
	copy(out, t.windows)
	return out
}

// ByName finds a configured window by its exact name.
func (t *Table) ByName(name string) (Window, error) {
	for _, w := range t.windows {
		if w.Name == name {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("%w: %q", ErrUnknownSeason, name)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
