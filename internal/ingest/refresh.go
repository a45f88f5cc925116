package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/clutchphase/stattrack/internal/storage"
)

// RefreshSummary tallies a re-import of exported matches.
type RefreshSummary struct {
	Refreshed int
	Failed    int
}

// RunRefresh force-reingests every per-match export in a directory.
// Exports are already reconciled, so rows go straight back through the
// save path, which re-derives ratings and result tags with current
// logic. File stems are the internal match ids they were exported
// under.
func (r *Runner) RunRefresh(ctx context.Context, dir string) (RefreshSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("read exports dir: %w", err)
	}

	var sum RefreshSummary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		matchID := strings.TrimSuffix(name, ".json")
		if err := r.refreshOne(ctx, filepath.Join(dir, name), matchID); err != nil {
			slog.Error("refresh_failed", "match_id", matchID, "error", err)
			sum.Failed++
			continue
		}
		slog.Info("match_refreshed", "match_id", matchID)
		sum.Refreshed++
	}
	slog.Info("refresh_complete", "refreshed", sum.Refreshed, "failed", sum.Failed)
	return sum, nil
}

func (r *Runner) refreshOne(ctx context.Context, path, matchID string) error {
	doc, err := ReadDemoPayload(path)
	if err != nil {
		return err
	}
	if len(doc.Stats) == 0 {
		return fmt.Errorf("export has no player rows")
	}
	saved, err := r.store.SaveMatch(ctx, storage.SaveMatchParams{
		MatchID:      matchID,
		CybershokeID: platformIDFromMatchID(matchID),
		ScoreStr:     doc.ScoreStr,
		MapName:      doc.MapName,
		ScoreT:       doc.ScoreT,
		ScoreCT:      doc.ScoreCT,
		Rows:         doc.Rows(),
		Force:        true,
		LobbyURL:     doc.LobbyURL,
	})
	if err != nil {
		return err
	}
	if !saved {
		return fmt.Errorf("forced save was skipped")
	}
	return nil
}

// platformIDFromMatchID undoes internalMatchID for exported files; ids
// without the platform prefix were manual entries.
func platformIDFromMatchID(matchID string) string {
	if cid, ok := strings.CutPrefix(matchID, "match_"); ok {
		return cid
	}
	return storage.ManualID
}
