package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/clutchphase/stattrack/internal/model"
	"github.com/clutchphase/stattrack/internal/storage"
)

func newTestRunner(t *testing.T) (*Runner, *storage.DB) {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRunner(db), db
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// demoDoc builds a parser document with the given player count. The
// multi-kill histogram deliberately mixes int and float values the way
// older parser builds did.
func demoDoc(t *testing.T, mapName string, players int) []byte {
	t.Helper()
	stats := make([]map[string]any, 0, players)
	for i := 0; i < players; i++ {
		team := 2
		if i%2 == 1 {
			team = 3
		}
		stats = append(stats, map[string]any{
			"Player":      fmt.Sprintf("player%d", i),
			"SteamID":     76561198000000100 + i,
			"TeamNum":     team,
			"Kills":       15 + i,
			"Deaths":      14,
			"Assists":     3,
			"Headshots":   7,
			"K/D":         1.1,
			"HS%":         46.7,
			"ADR":         80.5,
			"Score":       40 + i,
			"MultiKills":  map[string]any{"1": 10, "2": 2.0},
			"WeaponKills": map[string]int{"ak47": 12, "deagle": 3},
		})
	}
	raw, err := json.Marshal(map[string]any{
		"score_str": "T 13 - CT 9",
		"map_name":  mapName,
		"score_t":   13,
		"score_ct":  9,
		"stats":     stats,
	})
	if err != nil {
		t.Fatalf("marshal demo doc: %v", err)
	}
	return raw
}

func webDoc(t *testing.T, scoreStr string, players map[string]model.WebPlayerStats) []byte {
	t.Helper()
	raw, err := json.Marshal(model.WebStats{ScoreStr: scoreStr, MapName: "de_mirage", Players: players})
	if err != nil {
		t.Fatalf("marshal web doc: %v", err)
	}
	return raw
}

// ---- Single-match ingestion ----

func TestIngestOne_FullPipeline(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	demoPath := filepath.Join(dir, "777.json")
	webPath := filepath.Join(dir, "777.web.json")
	writeFile(t, demoPath, demoDoc(t, "de_mirage", 6))
	writeFile(t, webPath, webDoc(t, "13 - 9", map[string]model.WebPlayerStats{
		"player0": {Kills: 25, Deaths: 5, Assists: 1, Headshots: 20},
	}))

	res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, WebPath: webPath, PlatformID: "777"})
	if err != nil {
		t.Fatalf("IngestOne: %v", err)
	}
	if res.Outcome != Ingested || res.MatchID != "match_777" {
		t.Fatalf("result = %+v, want ingested match_777", res)
	}

	d, err := db.GetMatchDetails(ctx, "match_777")
	if err != nil {
		t.Fatalf("GetMatchDetails: %v", err)
	}
	if d == nil || d.ScoreT != 13 || d.ScoreCT != 9 || d.MapName != "de_mirage" {
		t.Errorf("stored details wrong: %+v", d)
	}

	sb, err := db.GetMatchScoreboard(ctx, "match_777")
	if err != nil {
		t.Fatalf("GetMatchScoreboard: %v", err)
	}
	if len(sb) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(sb))
	}
	for _, row := range sb {
		if row.Rating == nil {
			t.Errorf("%s: demo-backed row should carry a rating", row.Name)
		}
		if row.Name == "player0" && row.Kills != 25 {
			t.Errorf("web override lost: player0 kills = %d, want 25", row.Kills)
		}
	}
}

func TestIngestOne_DuplicateThenForce(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	demoPath := filepath.Join(dir, "888.json")
	writeFile(t, demoPath, demoDoc(t, "de_nuke", 6))

	if res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: "888"}); err != nil || res.Outcome != Ingested {
		t.Fatalf("first ingest: %+v err=%v", res, err)
	}
	res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: "888"})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Outcome != SkippedDuplicate {
		t.Errorf("outcome = %v, want skipped_duplicate", res.Outcome)
	}

	res, err = r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: "888", Force: true})
	if err != nil {
		t.Fatalf("forced ingest: %v", err)
	}
	if res.Outcome != Ingested {
		t.Errorf("forced outcome = %v, want ingested", res.Outcome)
	}
}

func TestIngestOne_SmallLobby(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	demoPath := filepath.Join(dir, "900.json")
	writeFile(t, demoPath, demoDoc(t, "de_dust2", 4))

	res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: "900"})
	if err != nil {
		t.Fatalf("IngestOne: %v", err)
	}
	if res.Outcome != SkippedSmall || res.Detail != "small_lobby" {
		t.Errorf("result = %+v, want skipped small_lobby", res)
	}
	if d, _ := db.GetMatchDetails(ctx, "match_900"); d != nil {
		t.Error("skipped match must not be stored")
	}
}

func TestIngestOne_ExcludedMaps(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	for i, mapName := range []string{"aim_redline", "awp_lego", "1v1_arena", "fy_pool_day"} {
		demoPath := filepath.Join(dir, fmt.Sprintf("exc%d.json", i))
		writeFile(t, demoPath, demoDoc(t, mapName, 6))

		res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: fmt.Sprintf("exc%d", i)})
		if err != nil {
			t.Fatalf("IngestOne %s: %v", mapName, err)
		}
		if res.Outcome != SkippedSmall || res.Detail != "map_excluded" {
			t.Errorf("%s: result = %+v, want skipped map_excluded", mapName, res)
		}
	}
}

func TestIngestOne_WebOnlyDegraded(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	players := map[string]model.WebPlayerStats{}
	for i := 0; i < 6; i++ {
		players[fmt.Sprintf("web%d", i)] = model.WebPlayerStats{Kills: 10 + i, Deaths: 12, Assists: 2, Headshots: 5}
	}
	webPath := filepath.Join(dir, "950.web.json")
	writeFile(t, webPath, webDoc(t, "7 - 13", players))

	res, err := r.IngestOne(ctx, Job{WebPath: webPath, PlatformID: "950", WebOnly: true})
	if err != nil {
		t.Fatalf("IngestOne web-only: %v", err)
	}
	if res.Outcome != Ingested {
		t.Fatalf("outcome = %v, want ingested", res.Outcome)
	}

	sb, err := db.GetMatchScoreboard(ctx, "match_950")
	if err != nil {
		t.Fatalf("GetMatchScoreboard: %v", err)
	}
	if len(sb) != 6 {
		t.Fatalf("expected 6 synthesized rows, got %d", len(sb))
	}
	for _, row := range sb {
		if row.Rating != nil {
			t.Errorf("%s: web-only rows have no histogram, rating must be NULL", row.Name)
		}
	}

	// Without a real score the degraded path refuses to guess.
	badPath := filepath.Join(dir, "951.web.json")
	writeFile(t, badPath, webDoc(t, "Unknown", players))
	res, err = r.IngestOne(ctx, Job{WebPath: badPath, PlatformID: "951", WebOnly: true})
	if err == nil || res.Outcome != Failed {
		t.Errorf("unknown score should fail, got %+v err=%v", res, err)
	}
}

func TestIngestOne_BothSourcesUnusable(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	res, err := r.IngestOne(ctx, Job{DemoPath: filepath.Join(t.TempDir(), "missing.json"), PlatformID: "999"})
	if err == nil {
		t.Fatal("expected error when no source is usable")
	}
	if res.Outcome != Failed {
		t.Errorf("outcome = %v, want failed", res.Outcome)
	}
}

func TestIngestOne_ManualEntriesRepeat(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	demoPath := filepath.Join(dir, "scrim.json")
	writeFile(t, demoPath, demoDoc(t, "de_train", 6))

	first, err := r.IngestOne(ctx, Job{DemoPath: demoPath})
	if err != nil || first.Outcome != Ingested {
		t.Fatalf("manual ingest: %+v err=%v", first, err)
	}
	second, err := r.IngestOne(ctx, Job{DemoPath: demoPath})
	if err != nil || second.Outcome != Ingested {
		t.Fatalf("repeat manual ingest: %+v err=%v", second, err)
	}

	if strings.HasPrefix(first.MatchID, "match_") || len(first.MatchID) != 36 {
		t.Errorf("manual id should be a uuid, got %q", first.MatchID)
	}
	if first.MatchID == second.MatchID {
		t.Error("manual entries must get distinct internal ids")
	}
	recent, err := db.GetRecentMatches(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentMatches: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected both manual matches stored, got %d", len(recent))
	}
}

// ---- Batch import ----

func TestRunBatch_CountersAndRegistry(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "1001.json"), demoDoc(t, "de_mirage", 6))
	writeFile(t, filepath.Join(dir, "1001.web.json"), webDoc(t, "13 - 9", map[string]model.WebPlayerStats{
		"player0": {Kills: 30, Deaths: 4},
	}))
	writeFile(t, filepath.Join(dir, "1002.json"), demoDoc(t, "de_inferno", 4))
	writeFile(t, filepath.Join(dir, "1003.json"), []byte("{not json"))

	if _, err := db.TrackLobby(ctx, "1001", "seen on lobby page"); err != nil {
		t.Fatalf("TrackLobby: %v", err)
	}

	sum, err := r.RunBatch(ctx, BatchOptions{Dir: dir, Concurrency: 2})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	want := BatchSummary{Processed: 3, Ingested: 1, Small: 1, Failed: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}

	// The tracked lobby picked up its demo flag and terminal status.
	lobbies, err := db.ListLobbies(ctx, "")
	if err != nil {
		t.Fatalf("ListLobbies: %v", err)
	}
	if len(lobbies) != 1 || lobbies[0].LobbyID != "1001" {
		t.Fatalf("lobbies = %+v, want just 1001", lobbies)
	}
	if !lobbies[0].HasDemo || lobbies[0].Status != model.StatusCompleted {
		t.Errorf("lobby 1001 = has_demo %v status %q, want true/completed", lobbies[0].HasDemo, lobbies[0].Status)
	}

	// The registry keeps the trail: terminal statuses for every job.
	for id, wantStatus := range map[string]string{
		"match_1001": model.StatusCompleted,
		"match_1002": model.StatusCompleted,
		"match_1003": model.StatusFailed,
	} {
		status, err := db.MatchStatus(ctx, id)
		if err != nil {
			t.Fatalf("MatchStatus %s: %v", id, err)
		}
		if status != wantStatus {
			t.Errorf("%s status = %q, want %q", id, status, wantStatus)
		}
	}

	// A second pass finds the good match already ingested.
	sum, err = r.RunBatch(ctx, BatchOptions{Dir: dir, Concurrency: 2})
	if err != nil {
		t.Fatalf("RunBatch second pass: %v", err)
	}
	want = BatchSummary{Processed: 3, Duplicates: 1, Small: 1, Failed: 1}
	if sum != want {
		t.Errorf("second summary = %+v, want %+v", sum, want)
	}
}

func TestRunBatch_EmptyDir(t *testing.T) {
	r, _ := newTestRunner(t)

	if _, err := r.RunBatch(context.Background(), BatchOptions{Dir: t.TempDir()}); err == nil {
		t.Fatal("expected error for a directory without parser documents")
	}
}

// ---- Export and refresh ----

func TestExport_RoundTripThroughRefresh(t *testing.T) {
	r, db := newTestRunner(t)
	ctx := context.Background()
	dir := t.TempDir()

	demoPath := filepath.Join(dir, "2001.json")
	writeFile(t, demoPath, demoDoc(t, "de_ancient", 6))
	if res, err := r.IngestOne(ctx, Job{DemoPath: demoPath, PlatformID: "2001"}); err != nil || res.Outcome != Ingested {
		t.Fatalf("ingest: %+v err=%v", res, err)
	}

	exportDir := filepath.Join(dir, "exports")
	exportPath := filepath.Join(exportDir, "match_2001.json")
	if err := r.ExportMatch(ctx, "match_2001", exportPath); err != nil {
		t.Fatalf("ExportMatch: %v", err)
	}

	doc, err := ReadDemoPayload(exportPath)
	if err != nil {
		t.Fatalf("read export back: %v", err)
	}
	if doc.ScoreT != 13 || doc.ScoreCT != 9 || doc.ScoreStr != "13-9" {
		t.Errorf("export scores wrong: %+v", doc)
	}
	if doc.LobbyURL != "https://cybershoke.net/match/2001" {
		t.Errorf("export lobby url = %q", doc.LobbyURL)
	}
	if len(doc.Stats) != 6 {
		t.Errorf("export rows = %d, want 6", len(doc.Stats))
	}

	// A fresh store rebuilt from exports matches the original.
	r2, db2 := newTestRunner(t)
	sum, err := r2.RunRefresh(ctx, exportDir)
	if err != nil {
		t.Fatalf("RunRefresh: %v", err)
	}
	if sum.Refreshed != 1 || sum.Failed != 0 {
		t.Fatalf("refresh summary = %+v", sum)
	}

	orig, err := db.GetMatchScoreboard(ctx, "match_2001")
	if err != nil {
		t.Fatalf("scoreboard original: %v", err)
	}
	rebuilt, err := db2.GetMatchScoreboard(ctx, "match_2001")
	if err != nil {
		t.Fatalf("scoreboard rebuilt: %v", err)
	}
	if len(rebuilt) != len(orig) {
		t.Fatalf("rebuilt rows = %d, want %d", len(rebuilt), len(orig))
	}
	for i := range orig {
		if rebuilt[i].Name != orig[i].Name || rebuilt[i].Kills != orig[i].Kills {
			t.Errorf("row %d diverged: %+v vs %+v", i, rebuilt[i], orig[i])
		}
		if orig[i].Rating != nil && (rebuilt[i].Rating == nil || *rebuilt[i].Rating != *orig[i].Rating) {
			t.Errorf("row %d rating diverged after refresh", i)
		}
	}

	d, err := db2.GetMatchDetails(ctx, "match_2001")
	if err != nil {
		t.Fatalf("details rebuilt: %v", err)
	}
	if d == nil || d.CybershokeID != "2001" {
		t.Errorf("platform id not recovered from export name: %+v", d)
	}
}
