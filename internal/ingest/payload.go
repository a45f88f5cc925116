package ingest

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/clutchphase/stattrack/internal/model"
	"github.com/clutchphase/stattrack/internal/rating"
)

// DemoPayload is the demo parser's output document. Field names are the
// parser's contract; anything missing decodes to its zero value. The
// lobby_url field only appears in re-written exports, never in fresh
// parser output.
type DemoPayload struct {
	ScoreStr string       `json:"score_str"`
	MapName  string       `json:"map_name"`
	ScoreT   int          `json:"score_t"`
	ScoreCT  int          `json:"score_ct"`
	LobbyURL string       `json:"lobby_url"`
	Error    string       `json:"error"`
	Stats    []payloadRow `json:"stats"`
}

// payloadRow shadows MultiKills with a loosely typed map. Current parser
// builds emit string keys with integer values, but older ones produced
// float values and padded keys, so the histogram is normalized instead
// of decoded strictly.
type payloadRow struct {
	model.PlayerMatchStats
	RawMultiKills map[string]any `json:"MultiKills"`
}

// Rows converts the payload's stat lines to model rows with normalized
// multi-kill histograms.
func (p *DemoPayload) Rows() []model.PlayerMatchStats {
	rows := make([]model.PlayerMatchStats, 0, len(p.Stats))
	for _, pr := range p.Stats {
		row := pr.PlayerMatchStats
		row.MultiKills = rating.NormalizeMultiKills(pr.RawMultiKills)
		rows = append(rows, row)
	}
	return rows
}

// ReadDemoPayload loads and decodes one parser document.
func ReadDemoPayload(path string) (*DemoPayload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read demo payload: %w", err)
	}
	var p DemoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode demo payload %s: %w", path, err)
	}
	return &p, nil
}

// ReadWebStats loads a scraped platform scoreboard document.
func ReadWebStats(path string) (*model.WebStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read web stats: %w", err)
	}
	var w model.WebStats
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode web stats %s: %w", path, err)
	}
	return &w, nil
}
