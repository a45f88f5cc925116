// Package reconcile merges the two sources of truth about a finished
// match: the demo parser's rich per-player rows and the platform's
// sparse web scoreboard. Web values win for the fields they carry
// because the platform is authoritative for the final score and basic
// kill counts, while the demo keeps everything the web never exposes.
package reconcile

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/clutchphase/stattrack/internal/model"
)

// Result is the reconciled view of one match.
type Result struct {
	Rows     []model.PlayerMatchStats
	ScoreStr string
	MapName  string
	ScoreT   int
	ScoreCT  int

	// Matched counts demo rows overwritten from the web scoreboard,
	// Unmatched the rows that passed through untouched.
	Matched   int
	Unmatched int
}

// Merge overlays web scoreboard values onto demo rows. Players are
// matched by exact display name: platform usernames are stable enough
// that fuzzy matching is not worth the false positives, but a rename
// between the demo and the scrape will leave that row unreconciled, so
// callers should watch the Unmatched count. A nil or empty web source
// passes everything through with the demo-derived score and map.
func Merge(rows []model.PlayerMatchStats, scoreStr, mapName string, scoreT, scoreCT int, web *model.WebStats) Result {
	res := Result{
		Rows:     make([]model.PlayerMatchStats, len(rows)),
		ScoreStr: scoreStr,
		MapName:  mapName,
		ScoreT:   scoreT,
		ScoreCT:  scoreCT,
	}
	copy(res.Rows, rows)

	if web == nil || len(web.Players) == 0 {
		res.Unmatched = len(rows)
		return res
	}

	if known(web.ScoreStr) {
		res.ScoreStr = web.ScoreStr
		if t, ct, ok := ParseScore(web.ScoreStr); ok {
			res.ScoreT, res.ScoreCT = t, ct
		} else {
			slog.Warn("web score not parseable, keeping demo score",
				"web_score", web.ScoreStr, "score_t", scoreT, "score_ct", scoreCT)
		}
	}
	if known(web.MapName) {
		res.MapName = web.MapName
	}

	for i := range res.Rows {
		w, ok := web.Players[res.Rows[i].Name]
		if !ok {
			res.Unmatched++
			continue
		}
		applyWebStats(&res.Rows[i], w)
		res.Matched++
	}
	return res
}

// FromWebOnly synthesizes match rows from the web scoreboard alone,
// for matches whose demo could not be retrieved or parsed. Demo-only
// fields stay zero and the multi-kill histogram stays empty, so every
// synthesized row ends up with no rating. That is deliberate: a rating
// without multi-kill data would not be comparable to the rest of the
// corpus.
func FromWebOnly(web *model.WebStats) Result {
	res := Result{MapName: "Unknown", ScoreStr: web.ScoreStr}
	if known(web.MapName) {
		res.MapName = web.MapName
	}
	if t, ct, ok := ParseScore(web.ScoreStr); ok {
		res.ScoreT, res.ScoreCT = t, ct
	}

	names := make([]string, 0, len(web.Players))
	for name := range web.Players {
		names = append(names, name)
	}
	sort.Strings(names)

	res.Rows = make([]model.PlayerMatchStats, 0, len(names))
	for _, name := range names {
		row := model.PlayerMatchStats{
			Name:        name,
			MultiKills:  map[string]int{},
			WeaponKills: map[string]int{},
		}
		applyWebStats(&row, web.Players[name])
		res.Rows = append(res.Rows, row)
	}
	res.Matched = len(res.Rows)
	return res
}

// ParseScore splits a "13-7" style score string into its two sides.
func ParseScore(s string) (scoreT, scoreCT int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	t, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	ct, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return t, ct, true
}

// applyWebStats overwrites the authoritative counters and recomputes
// the ratios derived from them.
func applyWebStats(row *model.PlayerMatchStats, w model.WebPlayerStats) {
	row.Kills = w.Kills
	row.Deaths = w.Deaths
	row.Assists = w.Assists
	row.Headshots = w.Headshots

	if w.Deaths > 0 {
		row.KDRatio = round2(float64(w.Kills) / float64(w.Deaths))
	} else {
		row.KDRatio = float64(w.Kills)
	}
	if w.Kills > 0 {
		row.HSPercent = round1(float64(w.Headshots) / float64(w.Kills) * 100)
	} else {
		row.HSPercent = 0
	}
}

func known(s string) bool {
	return s != "" && s != "Unknown"
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
