// Package ingest drives one match through decode, reconciliation,
// rating and storage, and fans the same pipeline out over directories
// for batch imports and refreshes.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/clutchphase/stattrack/internal/model"
	"github.com/clutchphase/stattrack/internal/reconcile"
	"github.com/clutchphase/stattrack/internal/storage"
)

// Outcome classifies what happened to one ingestion job.
type Outcome int

const (
	Ingested Outcome = iota
	SkippedDuplicate
	SkippedSmall
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ingested:
		return "ingested"
	case SkippedDuplicate:
		return "skipped_duplicate"
	case SkippedSmall:
		return "skipped_small"
	default:
		return "failed"
	}
}

// Lobbies below this player count are warmups and private duels, not
// matches worth rating.
const minPlayers = 6

// Map prefixes that mark aim and duel servers.
var excludedMapPrefixes = []string{"aim_", "awp_", "1v1_", "fy_"}

// Job is one match to ingest.
type Job struct {
	DemoPath   string // parser output document
	WebPath    string // optional scraped scoreboard
	PlatformID string // platform match id; empty means a manual entry
	LobbyURL   string
	Force      bool
	WebOnly    bool // skip DemoPath, synthesize rows from the web source
}

// Result reports one finished job.
type Result struct {
	Outcome Outcome
	MatchID string
	Detail  string
}

// Runner drives ingestion against one store.
type Runner struct {
	store *storage.DB
}

func NewRunner(store *storage.DB) *Runner {
	return &Runner{store: store}
}

// IngestOne runs one match through decode, reconcile and save. The
// returned error is non-nil exactly when the outcome is Failed; skips
// are normal results, not errors.
func (r *Runner) IngestOne(ctx context.Context, job Job) (Result, error) {
	platformID := job.PlatformID
	if platformID == "" {
		platformID = storage.ManualID
	}
	matchID := internalMatchID(platformID)

	fail := func(err error) (Result, error) {
		slog.Error("match_failed", "match_id", matchID, "platform_id", platformID, "error", err)
		return Result{Outcome: Failed, MatchID: matchID, Detail: err.Error()}, err
	}

	if !job.Force {
		dup, err := r.store.IsAlreadyAnalyzed(ctx, platformID)
		if err != nil {
			return fail(err)
		}
		if dup {
			slog.Info("match_skipped", "match_id", matchID, "platform_id", platformID, "reason", "duplicate")
			return Result{Outcome: SkippedDuplicate, MatchID: matchID, Detail: "already analyzed"}, nil
		}
	}

	merged, err := r.loadSources(job)
	if err != nil {
		return fail(err)
	}

	if reason := smallLobbyReason(merged); reason != "" {
		slog.Info("match_skipped", "match_id", matchID, "platform_id", platformID,
			"reason", reason, "map", merged.MapName, "players", len(merged.Rows))
		return Result{Outcome: SkippedSmall, MatchID: matchID, Detail: reason}, nil
	}

	saved, err := r.store.SaveMatch(ctx, storage.SaveMatchParams{
		MatchID:      matchID,
		CybershokeID: platformID,
		ScoreStr:     merged.ScoreStr,
		MapName:      merged.MapName,
		ScoreT:       merged.ScoreT,
		ScoreCT:      merged.ScoreCT,
		Rows:         merged.Rows,
		Force:        job.Force,
		LobbyURL:     job.LobbyURL,
	})
	if err != nil {
		return fail(err)
	}
	if !saved {
		slog.Info("match_skipped", "match_id", matchID, "platform_id", platformID, "reason", "duplicate")
		return Result{Outcome: SkippedDuplicate, MatchID: matchID, Detail: "already analyzed"}, nil
	}

	slog.Info("match_ingested", "match_id", matchID, "platform_id", platformID,
		"map", merged.MapName, "score", fmt.Sprintf("%d-%d", merged.ScoreT, merged.ScoreCT),
		"players", len(merged.Rows), "unmatched", merged.Unmatched)
	return Result{Outcome: Ingested, MatchID: matchID, Detail: merged.MapName}, nil
}

// loadSources reads whichever documents the job names and reconciles
// them. Demo rows are the backbone; the web source fills in, or, when
// the demo side is unusable, stands alone in degraded mode.
func (r *Runner) loadSources(job Job) (reconcile.Result, error) {
	var web *model.WebStats
	if job.WebPath != "" {
		w, err := ReadWebStats(job.WebPath)
		if err != nil {
			slog.Warn("web stats unusable", "path", job.WebPath, "error", err)
		} else {
			web = w
		}
	}

	if !job.WebOnly {
		demo, err := ReadDemoPayload(job.DemoPath)
		switch {
		case err != nil:
			slog.Warn("demo payload unusable", "path", job.DemoPath, "error", err)
		case demo.Error != "":
			slog.Warn("demo payload carries parser error", "path", job.DemoPath, "error", demo.Error)
		case len(demo.Stats) == 0:
			slog.Warn("demo payload has no player rows", "path", job.DemoPath)
		default:
			return reconcile.Merge(demo.Rows(), demo.ScoreStr, demo.MapName, demo.ScoreT, demo.ScoreCT, web), nil
		}
	}

	if !webUsable(web) {
		return reconcile.Result{}, fmt.Errorf("no usable source")
	}
	return reconcile.FromWebOnly(web), nil
}

// webUsable is the degraded-mode guard: without a real score string the
// web scoreboard cannot anchor a match record on its own.
func webUsable(web *model.WebStats) bool {
	return web != nil && len(web.Players) > 0 &&
		web.ScoreStr != "" && web.ScoreStr != "Unknown"
}

func smallLobbyReason(res reconcile.Result) string {
	m := strings.ToLower(res.MapName)
	for _, prefix := range excludedMapPrefixes {
		if strings.HasPrefix(m, prefix) {
			return "map_excluded"
		}
	}
	if len(res.Rows) < minPlayers {
		return "small_lobby"
	}
	return ""
}

// internalMatchID derives the store key. Platform matches keep a
// readable derived id; manual entries get a fresh uuid so repeats never
// collide.
func internalMatchID(platformID string) string {
	if platformID == storage.ManualID {
		return uuid.New().String()
	}
	return "match_" + platformID
}
