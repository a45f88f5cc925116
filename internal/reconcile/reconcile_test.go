package reconcile

import (
	"testing"

	"github.com/clutchphase/stattrack/internal/model"
)

// demoRow builds a demo-sourced row with the counters most tests care
// about; everything else stays at its parser default.
func demoRow(name string, kills, deaths int) model.PlayerMatchStats {
	return model.PlayerMatchStats{
		Name:       name,
		SteamID:    76561198000000001,
		Team:       model.TeamT,
		Kills:      kills,
		Deaths:     deaths,
		ADR:        80.5,
		MultiKills: map[string]int{"1": kills},
	}
}

func webSource(players map[string]model.WebPlayerStats) *model.WebStats {
	return &model.WebStats{ScoreStr: "Unknown", MapName: "Unknown", Players: players}
}

// ---- Merge ----

// TestMerge_OverridesFromWeb: web counters replace demo counters for a
// name-matched player and the derived K/D follows the web values.
func TestMerge_OverridesFromWeb(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5)}
	web := webSource(map[string]model.WebPlayerStats{
		"Alice": {Kills: 12, Deaths: 4},
	})

	res := Merge(rows, "10-3", "de_mirage", 10, 3, web)
	if res.Matched != 1 || res.Unmatched != 0 {
		t.Fatalf("matched=%d unmatched=%d, want 1/0", res.Matched, res.Unmatched)
	}
	got := res.Rows[0]
	if got.Kills != 12 || got.Deaths != 4 {
		t.Errorf("kills/deaths = %d/%d, want 12/4", got.Kills, got.Deaths)
	}
	if got.KDRatio != 3.0 {
		t.Errorf("K/D = %v, want 3.0", got.KDRatio)
	}
	if got.ADR != 80.5 {
		t.Errorf("ADR = %v, want untouched 80.5", got.ADR)
	}
}

// TestMerge_PassthroughUnmatched: a demo row with no web counterpart is
// byte-for-byte unchanged.
func TestMerge_PassthroughUnmatched(t *testing.T) {
	bob := demoRow("Bob", 7, 9)
	web := webSource(map[string]model.WebPlayerStats{
		"Alice": {Kills: 12, Deaths: 4},
	})

	res := Merge([]model.PlayerMatchStats{bob}, "5-13", "de_nuke", 5, 13, web)
	if res.Unmatched != 1 {
		t.Fatalf("unmatched = %d, want 1", res.Unmatched)
	}
	if res.Rows[0].Kills != 7 || res.Rows[0].Deaths != 9 {
		t.Errorf("row changed: kills/deaths = %d/%d, want 7/9", res.Rows[0].Kills, res.Rows[0].Deaths)
	}
}

// TestMerge_CaseSensitiveNames: "alice" and "Alice" are different
// players as far as reconciliation is concerned.
func TestMerge_CaseSensitiveNames(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("alice", 10, 5)}
	web := webSource(map[string]model.WebPlayerStats{
		"Alice": {Kills: 12, Deaths: 4},
	})

	res := Merge(rows, "10-3", "de_mirage", 10, 3, web)
	if res.Matched != 0 {
		t.Errorf("matched = %d, want 0 for differently-cased names", res.Matched)
	}
	if res.Rows[0].Kills != 10 {
		t.Errorf("kills = %d, want untouched 10", res.Rows[0].Kills)
	}
}

// TestMerge_NoWebSource: without web data everything passes through and
// score and map stay demo-derived.
func TestMerge_NoWebSource(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5), demoRow("Bob", 3, 8)}

	res := Merge(rows, "13-9", "de_inferno", 13, 9, nil)
	if res.ScoreStr != "13-9" || res.MapName != "de_inferno" {
		t.Errorf("score/map = %q/%q, want demo values", res.ScoreStr, res.MapName)
	}
	if res.ScoreT != 13 || res.ScoreCT != 9 {
		t.Errorf("scores = %d/%d, want 13/9", res.ScoreT, res.ScoreCT)
	}
	if res.Unmatched != 2 {
		t.Errorf("unmatched = %d, want 2", res.Unmatched)
	}
}

// TestMerge_WebScoreOverride: a known web score replaces the demo score
// string and reparses the side scores.
func TestMerge_WebScoreOverride(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5)}
	web := &model.WebStats{
		ScoreStr: "13 - 7",
		MapName:  "de_ancient",
		Players:  map[string]model.WebPlayerStats{"Alice": {Kills: 10, Deaths: 5}},
	}

	res := Merge(rows, "12-8", "de_dust2", 12, 8, web)
	if res.ScoreStr != "13 - 7" {
		t.Errorf("score string = %q, want web value", res.ScoreStr)
	}
	if res.ScoreT != 13 || res.ScoreCT != 7 {
		t.Errorf("scores = %d/%d, want 13/7", res.ScoreT, res.ScoreCT)
	}
	if res.MapName != "de_ancient" {
		t.Errorf("map = %q, want de_ancient", res.MapName)
	}
}

// TestMerge_BadWebScoreKeepsDemoSides: an unparseable web score still
// replaces the display string but the numeric sides fall back to the
// demo values instead of aborting.
func TestMerge_BadWebScoreKeepsDemoSides(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5)}
	web := &model.WebStats{
		ScoreStr: "13:7",
		Players:  map[string]model.WebPlayerStats{"Alice": {Kills: 10, Deaths: 5}},
	}

	res := Merge(rows, "12-8", "de_dust2", 12, 8, web)
	if res.ScoreT != 12 || res.ScoreCT != 8 {
		t.Errorf("scores = %d/%d, want demo fallback 12/8", res.ScoreT, res.ScoreCT)
	}
}

// TestMerge_UnknownSentinelsIgnored: the platform's "Unknown" score and
// map never override demo metadata.
func TestMerge_UnknownSentinelsIgnored(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5)}
	web := webSource(map[string]model.WebPlayerStats{"Alice": {Kills: 10, Deaths: 5}})

	res := Merge(rows, "12-8", "de_dust2", 12, 8, web)
	if res.ScoreStr != "12-8" || res.MapName != "de_dust2" {
		t.Errorf("score/map = %q/%q, want demo values kept", res.ScoreStr, res.MapName)
	}
}

// TestMerge_DerivedRatioEdges: zero web deaths degrade K/D to the kill
// count, zero web kills degrade HS% to 0.
func TestMerge_DerivedRatioEdges(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Ace", 1, 1), demoRow("Anchor", 1, 1)}
	web := webSource(map[string]model.WebPlayerStats{
		"Ace":    {Kills: 18, Deaths: 0, Headshots: 9},
		"Anchor": {Kills: 0, Deaths: 11, Headshots: 0},
	})

	res := Merge(rows, "13-2", "de_train", 13, 2, web)
	for _, row := range res.Rows {
		switch row.Name {
		case "Ace":
			if row.KDRatio != 18 {
				t.Errorf("Ace K/D = %v, want 18", row.KDRatio)
			}
			if row.HSPercent != 50.0 {
				t.Errorf("Ace HS%% = %v, want 50.0", row.HSPercent)
			}
		case "Anchor":
			if row.KDRatio != 0 {
				t.Errorf("Anchor K/D = %v, want 0", row.KDRatio)
			}
			if row.HSPercent != 0 {
				t.Errorf("Anchor HS%% = %v, want 0", row.HSPercent)
			}
		}
	}
}

// TestMerge_InputUntouched: the caller's slice is not mutated.
func TestMerge_InputUntouched(t *testing.T) {
	rows := []model.PlayerMatchStats{demoRow("Alice", 10, 5)}
	web := webSource(map[string]model.WebPlayerStats{"Alice": {Kills: 99, Deaths: 1}})

	Merge(rows, "10-3", "de_mirage", 10, 3, web)
	if rows[0].Kills != 10 {
		t.Errorf("input row mutated: kills = %d, want 10", rows[0].Kills)
	}
}

// ---- Web-only fallback ----

// TestFromWebOnly_SynthesizesRows: rows come out sorted by name with
// web counters applied, derived ratios computed and no multi-kill data,
// so no rating will ever be computed for them.
func TestFromWebOnly_SynthesizesRows(t *testing.T) {
	web := &model.WebStats{
		ScoreStr: "13-7",
		MapName:  "de_anubis",
		Players: map[string]model.WebPlayerStats{
			"Zed":   {Kills: 20, Deaths: 10, Assists: 3, Headshots: 10},
			"Alice": {Kills: 5, Deaths: 15, Assists: 1, Headshots: 1},
		},
	}

	res := FromWebOnly(web)
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0].Name != "Alice" || res.Rows[1].Name != "Zed" {
		t.Errorf("rows not sorted by name: %q, %q", res.Rows[0].Name, res.Rows[1].Name)
	}
	if res.ScoreT != 13 || res.ScoreCT != 7 {
		t.Errorf("scores = %d/%d, want 13/7", res.ScoreT, res.ScoreCT)
	}

	zed := res.Rows[1]
	if zed.KDRatio != 2.0 {
		t.Errorf("Zed K/D = %v, want 2.0", zed.KDRatio)
	}
	if zed.HSPercent != 50.0 {
		t.Errorf("Zed HS%% = %v, want 50.0", zed.HSPercent)
	}
	if zed.ADR != 0 || zed.SteamID != 0 || zed.Team != model.TeamUnknown {
		t.Errorf("demo-only fields should stay zero, got ADR=%v steam=%d team=%v", zed.ADR, zed.SteamID, zed.Team)
	}
	if len(zed.MultiKills) != 0 {
		t.Errorf("multi-kills should be empty, got %v", zed.MultiKills)
	}
}

// TestFromWebOnly_UnknownMetadata: an unknown map falls back to the
// "Unknown" placeholder and an unparseable score leaves both sides 0.
func TestFromWebOnly_UnknownMetadata(t *testing.T) {
	web := &model.WebStats{
		ScoreStr: "Unknown",
		MapName:  "",
		Players:  map[string]model.WebPlayerStats{"Solo": {Kills: 1, Deaths: 1}},
	}

	res := FromWebOnly(web)
	if res.MapName != "Unknown" {
		t.Errorf("map = %q, want Unknown", res.MapName)
	}
	if res.ScoreT != 0 || res.ScoreCT != 0 {
		t.Errorf("scores = %d/%d, want 0/0", res.ScoreT, res.ScoreCT)
	}
}

// ---- Score parsing ----

func TestParseScore(t *testing.T) {
	cases := []struct {
		in     string
		t, ct  int
		wantOK bool
	}{
		{"13-7", 13, 7, true},
		{" 13 - 7 ", 13, 7, true},
		{"0-0", 0, 0, true},
		{"13:7", 0, 0, false},
		{"Unknown", 0, 0, false},
		{"13-", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, c := range cases {
		gotT, gotCT, ok := ParseScore(c.in)
		if ok != c.wantOK || gotT != c.t || gotCT != c.ct {
			t.Errorf("ParseScore(%q) = (%d, %d, %v), want (%d, %d, %v)",
				c.in, gotT, gotCT, ok, c.t, c.ct, c.wantOK)
		}
	}
}
