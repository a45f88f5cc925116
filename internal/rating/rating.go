// Package rating derives a single per-match performance number from a
// player's raw counters. The rating is deliberately nullable: when the
// inputs needed for a comparable number are missing, there is no rating
// at all rather than a defaulted one.
package rating

import (
	"math"
	"strconv"
	"strings"
)

// Compute returns the performance rating for one player in one match,
// or nil when it cannot be computed: zero total rounds, or a missing or
// empty multi-kill histogram. Substituting a zero-multikill assumption
// for degraded data would inflate averages for exactly the players
// whose data is worst, so nil propagates to storage as NULL instead.
//
// The formula normalizes kills per round, survival rate and multi-kill
// frequency against pro-match baselines:
//
//	kill     = (kills / rounds) / 0.679
//	survival = ((rounds - deaths) / rounds) / 0.317
//	multi    = (k1 + 4*k2 + 9*k3 + 16*k4 + 25*k5) / rounds / 1.277
//	rating   = (kill + 0.7*survival + multi) / 2.7
//
// rounded to two decimals.
func Compute(kills, deaths int, multiKills map[string]int, totalRounds int) *float64 {
	if totalRounds == 0 || len(multiKills) == 0 {
		return nil
	}

	rounds := float64(totalRounds)
	killRating := float64(kills) / rounds / baselineKPR
	survivalRating := (rounds - float64(deaths)) / rounds / baselineSPR

	var points int
	for count := 1; count <= 5; count++ {
		points += count * count * multiKills[strconv.Itoa(count)]
	}
	multiKillRating := float64(points) / rounds / baselineRMK

	r := (killRating + survivalWeight*survivalRating + multiKillRating) / ratingDivisor
	r = math.Round(r*100) / 100
	return &r
}

// NormalizeMultiKills converts a loosely-typed histogram, as decoded
// from JSON, into canonical form. Producers are sloppy about key and
// value types: the same kill count may arrive as "2", " 2" or 2, and
// values as numbers or digit strings. Key forms that parse to the same
// count are summed together rather than overwriting each other. Returns
// nil when no usable entry remains, which Compute treats as missing
// data.
func NormalizeMultiKills(raw map[string]any) map[string]int {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]int, len(raw))
	for key, val := range raw {
		count, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		n, ok := asCount(val)
		if !ok {
			continue
		}
		out[strconv.Itoa(count)] += n
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func asCount(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
