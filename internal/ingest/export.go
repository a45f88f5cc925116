package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/clutchphase/stattrack/internal/model"
)

// MatchExport is the on-disk per-match document: the parser document
// shape carrying reconciled values, plus the lobby url.
type MatchExport struct {
	ScoreStr string                   `json:"score_str"`
	MapName  string                   `json:"map_name"`
	ScoreT   int                      `json:"score_t"`
	ScoreCT  int                      `json:"score_ct"`
	LobbyURL string                   `json:"lobby_url,omitempty"`
	Stats    []model.PlayerMatchStats `json:"stats"`
}

// BuildExport assembles the export document for one stored match.
func BuildExport(details *model.MatchDetails, rows []model.PlayerMatchStats) MatchExport {
	return MatchExport{
		ScoreStr: fmt.Sprintf("%d-%d", details.ScoreT, details.ScoreCT),
		MapName:  details.MapName,
		ScoreT:   details.ScoreT,
		ScoreCT:  details.ScoreCT,
		LobbyURL: details.LobbyURL,
		Stats:    rows,
	}
}

// WriteMatchExport writes the document to path, creating parent
// directories as needed.
func WriteMatchExport(path string, doc MatchExport) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ExportMatch writes one stored match to path. An empty path defaults
// to <match-id>.json in the working directory.
func (r *Runner) ExportMatch(ctx context.Context, matchID, path string) error {
	details, err := r.store.GetMatchDetails(ctx, matchID)
	if err != nil {
		return err
	}
	if details == nil {
		return fmt.Errorf("match %s not found", matchID)
	}
	rows, err := r.store.GetMatchRows(ctx, matchID)
	if err != nil {
		return err
	}
	if path == "" {
		path = matchID + ".json"
	}
	return WriteMatchExport(path, BuildExport(details, rows))
}
