package rating

import "testing"

// ---- Compute edge cases ----

// TestCompute_ZeroRounds: a zero-round match can never produce a rating.
func TestCompute_ZeroRounds(t *testing.T) {
	if r := Compute(10, 5, map[string]int{"1": 3}, 0); r != nil {
		t.Errorf("expected nil rating for zero rounds, got %v", *r)
	}
}

// TestCompute_MissingHistogram: nil and empty histograms mean the rating
// cannot be compared against fully-parsed matches, so none is produced.
func TestCompute_MissingHistogram(t *testing.T) {
	if r := Compute(10, 5, nil, 16); r != nil {
		t.Errorf("expected nil rating for nil histogram, got %v", *r)
	}
	if r := Compute(10, 5, map[string]int{}, 16); r != nil {
		t.Errorf("expected nil rating for empty histogram, got %v", *r)
	}
}

// TestCompute_WorkedExample: kills=15 deaths=10 mk={1:3,2:2,3:1} over 16
// rounds. kill = 0.9375/0.679 ≈ 1.3807, survival = 0.375/0.317 ≈ 1.1830,
// multi = (3+8+9)/16/1.277 ≈ 0.9789, so the combined value is
// (1.3807 + 0.7*1.1830 + 0.9789) / 2.7 ≈ 1.1806, rounded to 1.18.
func TestCompute_WorkedExample(t *testing.T) {
	r := Compute(15, 10, map[string]int{"1": 3, "2": 2, "3": 1}, 16)
	if r == nil {
		t.Fatal("expected a rating, got nil")
	}
	if *r != 1.18 {
		t.Errorf("rating = %v, want 1.18", *r)
	}
}

// TestCompute_IgnoresOutOfRangeCounts: counts outside 1..5 carry no
// weight but do not invalidate the histogram.
func TestCompute_IgnoresOutOfRangeCounts(t *testing.T) {
	base := Compute(8, 6, map[string]int{"1": 2}, 12)
	noisy := Compute(8, 6, map[string]int{"1": 2, "7": 99}, 12)
	if base == nil || noisy == nil {
		t.Fatal("expected ratings for both histograms")
	}
	if *base != *noisy {
		t.Errorf("out-of-range count changed rating: %v vs %v", *base, *noisy)
	}
}

// ---- Histogram normalization ----

// TestNormalizeMultiKills_SumsKeyForms: the same kill count spelled
// differently ("2", " 2", "02") accumulates instead of overwriting.
func TestNormalizeMultiKills_SumsKeyForms(t *testing.T) {
	got := NormalizeMultiKills(map[string]any{"2": 1.0, " 2": 2.0, "02": 1.0})
	if got == nil {
		t.Fatal("expected a histogram, got nil")
	}
	if got["2"] != 4 {
		t.Errorf(`got["2"] = %d, want 4`, got["2"])
	}
	if len(got) != 1 {
		t.Errorf("expected a single key, got %v", got)
	}
}

// TestNormalizeMultiKills_ValueTypes: JSON numbers decode as float64 and
// sloppy producers emit digit strings; both are accepted.
func TestNormalizeMultiKills_ValueTypes(t *testing.T) {
	got := NormalizeMultiKills(map[string]any{"1": 3.0, "2": "2", "3": 1})
	want := map[string]int{"1": 3, "2": 2, "3": 1}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %d, want %d", k, got[k], v)
		}
	}
}

// TestNormalizeMultiKills_Garbage: unusable input normalizes to nil so
// the rating stays null rather than being computed from noise.
func TestNormalizeMultiKills_Garbage(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"ace": "yes"},
		{"1": []any{1}},
	}
	for _, c := range cases {
		if got := NormalizeMultiKills(c); got != nil {
			t.Errorf("NormalizeMultiKills(%v) = %v, want nil", c, got)
		}
	}
}

// TestNormalizeThenCompute: a histogram decoded from loose JSON feeds
// Compute after normalization and matches the typed-map result.
func TestNormalizeThenCompute(t *testing.T) {
	raw := map[string]any{"1": 3.0, "2": 2.0, "3": 1.0}
	r := Compute(15, 10, NormalizeMultiKills(raw), 16)
	if r == nil {
		t.Fatal("expected a rating, got nil")
	}
	if *r != 1.18 {
		t.Errorf("rating = %v, want 1.18", *r)
	}
}
