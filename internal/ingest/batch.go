package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clutchphase/stattrack/internal/model"
)

const webSuffix = ".web.json"

// BatchOptions configure a directory import.
type BatchOptions struct {
	Dir         string
	Concurrency int
	Force       bool
}

// BatchSummary tallies per-match outcomes across one run.
type BatchSummary struct {
	Processed  int
	Ingested   int
	Duplicates int
	Small      int
	Failed     int
}

// RunBatch ingests every parser document in a directory. Files are
// named <platform-id>.json with an optional <platform-id>.web.json
// companion. Jobs run concurrently with one job per platform id, so no
// two workers ever touch the same match.
func (r *Runner) RunBatch(ctx context.Context, opts BatchOptions) (BatchSummary, error) {
	jobs, err := collectJobs(opts.Dir, opts.Force)
	if err != nil {
		return BatchSummary{}, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = r.runTracked(gctx, job)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, err
	}

	sum := BatchSummary{Processed: len(results)}
	for _, res := range results {
		switch res.Outcome {
		case Ingested:
			sum.Ingested++
		case SkippedDuplicate:
			sum.Duplicates++
		case SkippedSmall:
			sum.Small++
		case Failed:
			sum.Failed++
		}
	}
	slog.Info("batch_complete", "processed", sum.Processed, "ingested", sum.Ingested,
		"duplicates", sum.Duplicates, "small", sum.Small, "failed", sum.Failed)
	return sum, nil
}

// runTracked wraps IngestOne with registry bookkeeping so an
// interrupted run leaves a visible trail of what was attempted. Skips
// are terminal too: a duplicate or a too-small lobby will not become
// ingestable by retrying.
func (r *Runner) runTracked(ctx context.Context, job Job) Result {
	matchID := internalMatchID(job.PlatformID)
	if _, err := r.store.EnqueueMatch(ctx, matchID, "batch"); err != nil {
		slog.Warn("registry enqueue failed", "match_id", matchID, "error", err)
	}
	if err := r.store.SetMatchStatus(ctx, matchID, model.StatusProcessing); err != nil {
		slog.Warn("registry update failed", "match_id", matchID, "error", err)
	}

	res, err := r.IngestOne(ctx, job)
	status := model.StatusCompleted
	if err != nil {
		status = model.StatusFailed
	}
	if err := r.store.SetMatchStatus(ctx, res.MatchID, status); err != nil {
		slog.Warn("registry update failed", "match_id", res.MatchID, "error", err)
	}
	if res.Outcome == Ingested {
		// A tracked lobby whose demo just showed up in a batch dir is done.
		if err := r.store.SetLobbyDemo(ctx, job.PlatformID, true); err != nil {
			slog.Warn("lobby update failed", "lobby_id", job.PlatformID, "error", err)
		} else if err := r.store.SetLobbyStatus(ctx, job.PlatformID, model.StatusCompleted); err != nil {
			slog.Warn("lobby update failed", "lobby_id", job.PlatformID, "error", err)
		}
	}
	return res
}

// collectJobs pairs <id>.json parser documents with their optional
// <id>.web.json companions.
func collectJobs(dir string, force bool) ([]Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read batch dir: %w", err)
	}

	var jobs []Job
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, webSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		job := Job{
			DemoPath:   filepath.Join(dir, name),
			PlatformID: id,
			Force:      force,
		}
		if webPath := filepath.Join(dir, id+webSuffix); fileExists(webPath) {
			job.WebPath = webPath
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no parser documents in %s", dir)
	}
	return jobs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
