package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/clutchphase/stattrack/internal/model"
)

// resolvePlayer turns a CLI identifier into the (steamID, name) pair
// rows may be stored under. A numeric identifier is a steam id and gets
// a best-effort reverse lookup for the display name; anything else is a
// display name and gets a forward lookup for the steam id.
func (db *DB) resolvePlayer(ctx context.Context, identifier string) (steamID, name string, err error) {
	if isAllDigits(identifier) {
		steamID = identifier
		err = db.db.GetContext(ctx, &name,
			db.rebind("SELECT name FROM players WHERE steamid = ?"), steamID)
	} else {
		name = identifier
		var sid sql.NullString
		err = db.db.GetContext(ctx, &sid,
			db.rebind("SELECT steamid FROM players WHERE name = ?"), name)
		steamID = sid.String
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	if err != nil {
		return "", "", fmt.Errorf("resolve player %q: %w", identifier, err)
	}
	return steamID, name, nil
}

// playerCond builds the row filter for a resolved player. Matching on
// both columns catches rows written before the steam id was learned;
// an empty steam id must never appear in the filter or it would match
// every web-only row in the table.
func playerCond(steamID, name string) (string, []any) {
	switch {
	case steamID != "" && name != "":
		return "(steamid = ? OR player_name = ?)", []any{steamID, name}
	case steamID != "":
		return "steamid = ?", []any{steamID}
	default:
		return "player_name = ?", []any{name}
	}
}

// GetPlayerAggregate returns totals and averages for one player across
// every rated row inside a date window, or nil when no rated rows
// exist. A zero from or to leaves that side of the window open.
// Averages skip zero values so partial captures do not drag them down.
func (db *DB) GetPlayerAggregate(ctx context.Context, identifier string, from, to time.Time) (*model.PlayerAggregate, error) {
	steamID, name, err := db.resolvePlayer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	cond, args := playerCond(steamID, name)

	where := "WHERE " + cond + " AND pms.rating IS NOT NULL"
	if !from.IsZero() {
		where += " AND md.date_analyzed >= ?"
		args = append(args, formatTimestamp(from))
	}
	if !to.IsZero() {
		where += " AND md.date_analyzed < ?"
		args = append(args, formatTimestamp(to))
	}

	var (
		agg                            model.PlayerAggregate
		kills, deaths, assists         sql.NullInt64
		entryKills, entryDeaths        sql.NullInt64
		utilDmg, flashAssists, flashed sql.NullInt64
		plants, defuses, clutches      sql.NullInt64
		avgADR, avgRating, avgHS       sql.NullFloat64
		wins, losses, draws            sql.NullInt64
	)
	err = db.db.QueryRowContext(ctx, db.rebind(`
		SELECT COUNT(*),
		       SUM(pms.kills), SUM(pms.deaths), SUM(pms.assists),
		       SUM(pms.entry_kills), SUM(pms.entry_deaths),
		       SUM(pms.util_damage), SUM(pms.flash_assists), SUM(pms.enemies_flashed),
		       SUM(pms.bomb_plants), SUM(pms.bomb_defuses), SUM(pms.clutch_wins),
		       AVG(NULLIF(pms.adr, 0)), AVG(NULLIF(pms.rating, 0)), AVG(NULLIF(pms.headshot_pct, 0)),
		       SUM(CASE WHEN pms.match_result = 'W' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN pms.match_result = 'L' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN pms.match_result IN ('D', 'T') THEN 1 ELSE 0 END)
		FROM player_match_stats pms
		JOIN match_details md ON pms.match_id = md.match_id
		`+where), args...).
		Scan(&agg.Matches,
			&kills, &deaths, &assists,
			&entryKills, &entryDeaths,
			&utilDmg, &flashAssists, &flashed,
			&plants, &defuses, &clutches,
			&avgADR, &avgRating, &avgHS,
			&wins, &losses, &draws)
	if err != nil {
		return nil, fmt.Errorf("aggregate player %q: %w", identifier, err)
	}
	if agg.Matches == 0 {
		return nil, nil
	}

	agg.Name = name
	if agg.Name == "" {
		agg.Name = identifier
	}
	agg.Kills = int(kills.Int64)
	agg.Deaths = int(deaths.Int64)
	agg.Assists = int(assists.Int64)
	agg.EntryKills = int(entryKills.Int64)
	agg.EntryDeaths = int(entryDeaths.Int64)
	agg.UtilityDamage = int(utilDmg.Int64)
	agg.FlashAssists = int(flashAssists.Int64)
	agg.EnemiesFlashed = int(flashed.Int64)
	agg.BombPlants = int(plants.Int64)
	agg.BombDefuses = int(defuses.Int64)
	agg.ClutchWins = int(clutches.Int64)
	agg.AvgADR = avgADR.Float64
	agg.AvgRating = avgRating.Float64
	agg.AvgHSPct = avgHS.Float64
	agg.Wins = int(wins.Int64)
	agg.Losses = int(losses.Int64)
	agg.Draws = int(draws.Int64)
	return &agg, nil
}

// GetPlayerMatchHistory returns a player's most recent matches, newest
// first, one line per match with that player's own numbers on it.
func (db *DB) GetPlayerMatchHistory(ctx context.Context, identifier string, limit int) ([]model.PlayerMatchHistoryRow, error) {
	steamID, name, err := db.resolvePlayer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	cond, args := playerCond(steamID, name)
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT pms.match_id, md.map, md.score_t, md.score_ct,
		       pms.match_result, pms.kills, pms.deaths, pms.assists,
		       pms.rating, md.date_analyzed
		FROM player_match_stats pms
		JOIN match_details md ON pms.match_id = md.match_id
		WHERE `+cond+`
		ORDER BY md.date_analyzed DESC
		LIMIT ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("load match history for %q: %w", identifier, err)
	}
	defer rows.Close()

	var out []model.PlayerMatchHistoryRow
	for rows.Next() {
		var (
			r                model.PlayerMatchHistoryRow
			scoreT, scoreCT  int
			rating           sql.NullFloat64
			analyzed, result sql.NullString
		)
		if err := rows.Scan(&r.MatchID, &r.MapName, &scoreT, &scoreCT,
			&result, &r.Kills, &r.Deaths, &r.Assists,
			&rating, &analyzed); err != nil {
			return nil, fmt.Errorf("scan match history row: %w", err)
		}
		r.Score = fmt.Sprintf("%d-%d", scoreT, scoreCT)
		r.Result = result.String
		if rating.Valid {
			v := rating.Float64
			r.Rating = &v
		}
		if r.DateAnalyzed, err = parseTimestamp(analyzed.String); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSeasonLeaderboard aggregates rated rows per player inside a date
// window, best average rating first. A zero from or to leaves that side
// of the window open. Players with fewer than minMatches rows are
// dropped so two lucky games cannot top the board.
func (db *DB) GetSeasonLeaderboard(ctx context.Context, from, to time.Time, minMatches int) ([]model.LeaderboardRow, error) {
	where := "WHERE pms.rating IS NOT NULL"
	var args []any
	if !from.IsZero() {
		where += " AND md.date_analyzed >= ?"
		args = append(args, formatTimestamp(from))
	}
	if !to.IsZero() {
		where += " AND md.date_analyzed < ?"
		args = append(args, formatTimestamp(to))
	}
	args = append(args, minMatches)

	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT pms.player_name,
		       COUNT(*) AS matches_played,
		       SUM(pms.kills) AS total_kills,
		       SUM(pms.deaths) AS total_deaths,
		       SUM(pms.assists) AS total_assists,
		       AVG(pms.adr) AS avg_adr,
		       AVG(NULLIF(pms.rating, 0)) AS avg_rating,
		       AVG(NULLIF(pms.headshot_pct, 0)) AS avg_hs,
		       SUM(CASE WHEN pms.match_result = 'W' THEN 1 ELSE 0 END) AS wins,
		       SUM(CASE WHEN pms.match_result = 'L' THEN 1 ELSE 0 END) AS losses,
		       SUM(pms.entry_kills) AS total_entries,
		       SUM(pms.entry_deaths) AS total_entry_deaths,
		       SUM(pms.rounds_last_alive) AS total_bait_rounds,
		       SUM(pms.clutch_wins) AS total_clutches,
		       SUM(pms.total_spent) AS total_spent_cash,
		       SUM(pms.enemies_flashed) AS total_flashed,
		       SUM(pms.util_damage) AS total_util_dmg,
		       SUM(pms.flash_assists) AS total_flash_assists,
		       SUM(pms.bomb_plants) AS total_plants,
		       SUM(pms.bomb_defuses) AS total_defuses
		FROM player_match_stats pms
		JOIN match_details md ON pms.match_id = md.match_id
		`+where+`
		GROUP BY pms.player_name
		HAVING COUNT(*) >= ?
		ORDER BY avg_rating DESC`), args...)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.LeaderboardRow
	for rows.Next() {
		var (
			r                        model.LeaderboardRow
			avgADR, avgRating, avgHS sql.NullFloat64
		)
		if err := rows.Scan(&r.Name, &r.Matches,
			&r.Kills, &r.Deaths, &r.Assists,
			&avgADR, &avgRating, &avgHS,
			&r.Wins, &r.Losses,
			&r.EntryKills, &r.EntryDeaths,
			&r.BaitRounds, &r.ClutchWins, &r.SpentCash,
			&r.EnemiesFlashed, &r.UtilityDamage, &r.FlashAssists,
			&r.BombPlants, &r.BombDefuses); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		r.AvgADR = avgADR.Float64
		r.AvgRating = avgRating.Float64
		r.AvgHSPct = avgHS.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPlayerWeaponTotals sums per-weapon kills across a player's rows
// inside a date window, most-used weapon first. AvgKills averages over
// the matches the weapon actually appeared in, not every match played.
func (db *DB) GetPlayerWeaponTotals(ctx context.Context, identifier string, from, to time.Time, limit int) ([]model.WeaponStat, error) {
	steamID, name, err := db.resolvePlayer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	cond, args := playerCond(steamID, name)

	where := "WHERE " + cond + " AND pms.weapon_kills IS NOT NULL AND pms.weapon_kills != '{}'"
	if !from.IsZero() {
		where += " AND md.date_analyzed >= ?"
		args = append(args, formatTimestamp(from))
	}
	if !to.IsZero() {
		where += " AND md.date_analyzed < ?"
		args = append(args, formatTimestamp(to))
	}

	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT pms.weapon_kills
		FROM player_match_stats pms
		JOIN match_details md ON pms.match_id = md.match_id
		`+where), args...)
	if err != nil {
		return nil, fmt.Errorf("load weapon stats for %q: %w", identifier, err)
	}
	defer rows.Close()

	totals := map[string]int{}
	matchesWith := map[string]int{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan weapon stats: %w", err)
		}
		var kills map[string]int
		if err := json.Unmarshal([]byte(raw), &kills); err != nil {
			continue
		}
		for weapon, n := range kills {
			if weapon == "" || n <= 0 {
				continue
			}
			totals[weapon] += n
			matchesWith[weapon]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.WeaponStat, 0, len(totals))
	for weapon, total := range totals {
		out = append(out, model.WeaponStat{
			Weapon:     weapon,
			TotalKills: total,
			AvgKills:   float64(total) / float64(matchesWith[weapon]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalKills != out[j].TotalKills {
			return out[i].TotalKills > out[j].TotalKills
		}
		return out[i].Weapon < out[j].Weapon
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
