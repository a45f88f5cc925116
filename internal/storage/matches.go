package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/clutchphase/stattrack/internal/model"
	"github.com/clutchphase/stattrack/internal/rating"
)

// SaveMatchParams carries one reconciled match into the store.
type SaveMatchParams struct {
	MatchID      string
	CybershokeID string
	ScoreStr     string
	MapName      string
	ScoreT       int
	ScoreCT      int
	Rows         []model.PlayerMatchStats
	Force        bool
	LobbyURL     string
	AnalyzedAt   time.Time // zero means now
}

// IsAlreadyAnalyzed reports whether a match with this platform id is
// already stored. Empty ids and ManualID never count as duplicates.
func (db *DB) IsAlreadyAnalyzed(ctx context.Context, cybershokeID string) (bool, error) {
	if !realPlatformID(cybershokeID) {
		return false, nil
	}
	var id string
	err := db.db.GetContext(ctx, &id,
		db.rebind("SELECT match_id FROM match_details WHERE cybershoke_id = ? LIMIT 1"), cybershokeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check analyzed: %w", err)
	}
	return true, nil
}

// SaveMatch replaces the stored copy of one match: the header row plus
// every player row, in one transaction, so readers never observe a
// half-written match. Returns false without touching anything when the
// platform id was already ingested and Force is off.
//
// Each player row runs under its own savepoint: demo data is noisy and
// one malformed row must not take the rest of the scoreboard down with
// it. Rejected rows are logged and skipped. The rating is computed here,
// once, at write time; queries never re-derive it.
func (db *DB) SaveMatch(ctx context.Context, p SaveMatchParams) (bool, error) {
	dup, err := db.IsAlreadyAnalyzed(ctx, p.CybershokeID)
	if err != nil {
		return false, err
	}
	if dup && !p.Force {
		return false, nil
	}

	scoreT, scoreCT := p.ScoreT, p.ScoreCT
	if scoreT == 0 && scoreCT == 0 {
		scoreT, scoreCT = scoresFromLabeledString(p.ScoreStr)
	}
	totalRounds := scoreT + scoreCT

	lobbyURL := p.LobbyURL
	if lobbyURL == "" && realPlatformID(p.CybershokeID) {
		lobbyURL = "https://cybershoke.net/match/" + p.CybershokeID
	}

	analyzedAt := p.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	var pairs []steamPair
	err = withLockRetry(ctx, func() error {
		var txErr error
		pairs, txErr = db.saveMatchTx(ctx, p, scoreT, scoreCT, totalRounds, lobbyURL, analyzedAt)
		return txErr
	})
	if err != nil {
		return false, err
	}

	// Cross-reference display names to steam ids once the write lock is
	// released. Best effort: a failed update never fails the save.
	for _, pair := range pairs {
		if err := db.upsertPlayerSteamID(ctx, pair.name, pair.id); err != nil {
			slog.Warn("steamid update failed", "player", pair.name, "error", err)
		}
	}
	return true, nil
}

type steamPair struct{ name, id string }

func (db *DB) saveMatchTx(ctx context.Context, p SaveMatchParams, scoreT, scoreCT, totalRounds int, lobbyURL string, analyzedAt time.Time) ([]steamPair, error) {
	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	// Player rows cascade with their match_details row.
	if _, err := tx.ExecContext(ctx,
		db.rebind("DELETE FROM match_details WHERE match_id = ?"), p.MatchID); err != nil {
		return nil, fmt.Errorf("clear match %s: %w", p.MatchID, err)
	}
	if p.Force && realPlatformID(p.CybershokeID) {
		// A forced re-ingest may arrive under a fresh internal id;
		// drop whatever the platform id was stored under before.
		if _, err := tx.ExecContext(ctx,
			db.rebind("DELETE FROM match_details WHERE cybershoke_id = ?"), p.CybershokeID); err != nil {
			return nil, fmt.Errorf("clear platform id %s: %w", p.CybershokeID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, db.rebind(`
		INSERT INTO match_details(match_id, cybershoke_id, date_analyzed, map, score_t, score_ct, total_rounds, lobby_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.MatchID, p.CybershokeID, formatTimestamp(analyzedAt), p.MapName,
		scoreT, scoreCT, totalRounds, lobbyURL); err != nil {
		return nil, fmt.Errorf("insert match %s: %w", p.MatchID, err)
	}

	pairs := make([]steamPair, 0, len(p.Rows))
	for i := range p.Rows {
		row := p.Rows[i]
		row.MatchID = p.MatchID
		row.MatchResult = matchResult(row.Team, scoreT, scoreCT)
		row.Rating = rating.Compute(row.Kills, row.Deaths, row.MultiKills, totalRounds)

		if err := db.insertPlayerRow(ctx, tx, row); err != nil {
			slog.Warn("player row rejected", "match_id", p.MatchID, "player", row.Name, "error", err)
			continue
		}
		if row.Name != "" && row.SteamID != 0 {
			pairs = append(pairs, steamPair{row.Name, strconv.FormatUint(row.SteamID, 10)})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save: %w", err)
	}
	return pairs, nil
}

// insertPlayerRow writes one player row under its own savepoint so a
// failure rolls back just this row and the surrounding transaction
// stays usable on both engines.
func (db *DB) insertPlayerRow(ctx context.Context, tx *sqlx.Tx, row model.PlayerMatchStats) error {
	mkJSON, err := marshalHistogram(row.MultiKills)
	if err != nil {
		return fmt.Errorf("encode multi-kills: %w", err)
	}
	wkJSON, err := marshalHistogram(row.WeaponKills)
	if err != nil {
		return fmt.Errorf("encode weapon kills: %w", err)
	}
	steamID := ""
	if row.SteamID != 0 {
		steamID = strconv.FormatUint(row.SteamID, 10)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT player_row"); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO player_match_stats(
			match_id, player_name, steamid, player_team, match_result,
			kills, deaths, assists, score, damage,
			adr, rating, headshot_kills, headshot_pct, kd_ratio,
			util_damage, enemies_flashed, team_flashed, flash_assists,
			total_spent, entry_kills, entry_deaths, clutch_wins,
			rounds_last_alive, bomb_plants, bomb_defuses,
			multi_kills, weapon_kills
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		row.MatchID, row.Name, steamID, int(row.Team), row.MatchResult,
		row.Kills, row.Deaths, row.Assists, row.Score, row.Damage,
		row.ADR, row.Rating, row.Headshots, row.HSPercent, row.KDRatio,
		row.UtilityDamage, row.EnemiesFlashed, row.TeammatesFlashed, row.FlashAssists,
		row.TotalSpent, row.EntryKills, row.EntryDeaths, row.ClutchWins,
		row.RoundsLastAlive, row.BombPlants, row.BombDefuses,
		mkJSON, wkJSON)
	if err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT player_row"); rbErr != nil {
			return fmt.Errorf("row rollback failed: %v (insert error: %w)", rbErr, err)
		}
		_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT player_row")
		return fmt.Errorf("insert player row: %w", err)
	}
	_, err = tx.ExecContext(ctx, "RELEASE SAVEPOINT player_row")
	return err
}

func (db *DB) upsertPlayerSteamID(ctx context.Context, name, steamID string) error {
	_, err := db.db.ExecContext(ctx, db.rebind(`
		INSERT INTO players(name, steamid) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET steamid = excluded.steamid`), name, steamID)
	return err
}

// GetMatchDetails returns the header row for one match, or nil when the
// match is not stored.
func (db *DB) GetMatchDetails(ctx context.Context, matchID string) (*model.MatchDetails, error) {
	var (
		d             model.MatchDetails
		cid, mp, url  sql.NullString
		analyzedAtRaw string
	)
	err := db.db.QueryRowContext(ctx, db.rebind(`
		SELECT match_id, cybershoke_id, date_analyzed, map, score_t, score_ct, total_rounds, lobby_url
		FROM match_details WHERE match_id = ?`), matchID).
		Scan(&d.MatchID, &cid, &analyzedAtRaw, &mp, &d.ScoreT, &d.ScoreCT, &d.TotalRounds, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", matchID, err)
	}
	d.CybershokeID = cid.String
	d.MapName = mp.String
	d.LobbyURL = url.String
	if d.DateAnalyzed, err = parseTimestamp(analyzedAtRaw); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetMatchScoreboard returns every player row for one match, best score
// first.
func (db *DB) GetMatchScoreboard(ctx context.Context, matchID string) ([]model.ScoreboardRow, error) {
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT player_name, player_team, match_result,
		       kills, deaths, assists,
		       adr, rating, headshot_pct, score,
		       util_damage, flash_assists, enemies_flashed,
		       entry_kills, entry_deaths,
		       total_spent,
		       multi_kills, weapon_kills
		FROM player_match_stats
		WHERE match_id = ?
		ORDER BY score DESC`), matchID)
	if err != nil {
		return nil, fmt.Errorf("load scoreboard %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []model.ScoreboardRow
	for rows.Next() {
		var (
			r              model.ScoreboardRow
			team           int
			result         sql.NullString
			ratingVal      sql.NullFloat64
			mkJSON, wkJSON string
		)
		if err := rows.Scan(&r.Name, &team, &result,
			&r.Kills, &r.Deaths, &r.Assists,
			&r.ADR, &ratingVal, &r.HSPct, &r.Score,
			&r.UtilityDamage, &r.FlashAssists, &r.EnemiesFlashed,
			&r.EntryKills, &r.EntryDeaths,
			&r.TotalSpent,
			&mkJSON, &wkJSON); err != nil {
			return nil, fmt.Errorf("scan scoreboard row: %w", err)
		}
		r.Result = result.String
		r.Team = model.Team(team)
		if ratingVal.Valid {
			v := ratingVal.Float64
			r.Rating = &v
		}
		r.MultiKills = decodeHistogram(mkJSON)
		r.WeaponKills = decodeHistogram(wkJSON)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetMatchRows returns the full stored player rows for one match in the
// same shape they were ingested, rating and result attached. Used by
// the JSON export.
func (db *DB) GetMatchRows(ctx context.Context, matchID string) ([]model.PlayerMatchStats, error) {
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT player_name, steamid, player_team, match_result,
		       kills, deaths, assists, score, damage,
		       adr, rating, headshot_kills, headshot_pct, kd_ratio,
		       util_damage, enemies_flashed, team_flashed, flash_assists,
		       total_spent, entry_kills, entry_deaths, clutch_wins,
		       rounds_last_alive, bomb_plants, bomb_defuses,
		       multi_kills, weapon_kills
		FROM player_match_stats
		WHERE match_id = ?
		ORDER BY score DESC`), matchID)
	if err != nil {
		return nil, fmt.Errorf("load match rows %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []model.PlayerMatchStats
	for rows.Next() {
		var (
			s               model.PlayerMatchStats
			steamIDStr      sql.NullString
			resultStr       sql.NullString
			team            int
			ratingVal       sql.NullFloat64
			mkJSON, wkJSON  string
		)
		if err := rows.Scan(&s.Name, &steamIDStr, &team, &resultStr,
			&s.Kills, &s.Deaths, &s.Assists, &s.Score, &s.Damage,
			&s.ADR, &ratingVal, &s.Headshots, &s.HSPercent, &s.KDRatio,
			&s.UtilityDamage, &s.EnemiesFlashed, &s.TeammatesFlashed, &s.FlashAssists,
			&s.TotalSpent, &s.EntryKills, &s.EntryDeaths, &s.ClutchWins,
			&s.RoundsLastAlive, &s.BombPlants, &s.BombDefuses,
			&mkJSON, &wkJSON); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		s.MatchID = matchID
		s.SteamID, _ = strconv.ParseUint(steamIDStr.String, 10, 64)
		s.Team = model.Team(team)
		s.MatchResult = resultStr.String
		if ratingVal.Valid {
			v := ratingVal.Float64
			s.Rating = &v
		}
		s.MultiKills = decodeHistogram(mkJSON)
		s.WeaponKills = decodeHistogram(wkJSON)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRecentMatches returns the newest stored matches, default 10.
func (db *DB) GetRecentMatches(ctx context.Context, limit int) ([]model.RecentMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT match_id, cybershoke_id, map, score_t, score_ct, date_analyzed, lobby_url
		FROM match_details
		ORDER BY date_analyzed DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("load recent matches: %w", err)
	}
	defer rows.Close()

	var out []model.RecentMatch
	for rows.Next() {
		var (
			m               model.RecentMatch
			cid, mp, url    sql.NullString
			scoreT, scoreCT int
			analyzedAtRaw   string
		)
		if err := rows.Scan(&m.MatchID, &cid, &mp, &scoreT, &scoreCT, &analyzedAtRaw, &url); err != nil {
			return nil, fmt.Errorf("scan recent match: %w", err)
		}
		m.CybershokeID = cid.String
		m.MapName = mp.String
		m.LobbyURL = url.String
		m.Score = fmt.Sprintf("%d-%d", scoreT, scoreCT)
		if m.DateAnalyzed, err = parseTimestamp(analyzedAtRaw); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DropMatch removes one match and, through the cascade, its player
// rows. Returns whether a match was actually removed.
func (db *DB) DropMatch(ctx context.Context, matchID string) (bool, error) {
	res, err := db.db.ExecContext(ctx,
		db.rebind("DELETE FROM match_details WHERE match_id = ?"), matchID)
	if err != nil {
		return false, fmt.Errorf("drop match %s: %w", matchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("drop match %s: %w", matchID, err)
	}
	return n > 0, nil
}

// RecomputeRatings re-derives the rating column for every stored player
// row from its persisted counters, setting NULL where the inputs do not
// justify a number. Used after formula changes or for rows written by
// older tools.
func (db *DB) RecomputeRatings(ctx context.Context) (rated, nulled int, err error) {
	type target struct {
		matchID, name string
		value         *float64
	}

	rows, err := db.db.QueryContext(ctx, `
		SELECT pms.match_id, pms.player_name, pms.kills, pms.deaths, pms.multi_kills, md.total_rounds
		FROM player_match_stats pms
		JOIN match_details md ON pms.match_id = md.match_id`)
	if err != nil {
		return 0, 0, fmt.Errorf("load rows for recompute: %w", err)
	}

	var targets []target
	for rows.Next() {
		var (
			t             target
			kills, deaths int
			mkJSON        string
			totalRounds   int
		)
		if err := rows.Scan(&t.matchID, &t.name, &kills, &deaths, &mkJSON, &totalRounds); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("scan row for recompute: %w", err)
		}
		var loose map[string]any
		if err := json.Unmarshal([]byte(mkJSON), &loose); err != nil {
			loose = nil
		}
		t.value = rating.Compute(kills, deaths, rating.NormalizeMultiKills(loose), totalRounds)
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, err
	}
	rows.Close()

	err = withLockRetry(ctx, func() error {
		tx, err := db.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin recompute: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			db.rebind("UPDATE player_match_stats SET rating = ? WHERE match_id = ? AND player_name = ?"))
		if err != nil {
			return fmt.Errorf("prepare recompute: %w", err)
		}
		defer stmt.Close()

		rated, nulled = 0, 0
		for _, t := range targets {
			if _, err := stmt.ExecContext(ctx, t.value, t.matchID, t.name); err != nil {
				return fmt.Errorf("update rating for %s/%s: %w", t.matchID, t.name, err)
			}
			if t.value != nil {
				rated++
			} else {
				nulled++
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, 0, err
	}
	return rated, nulled, nil
}

// matchResult tags a row W, L or D by comparing the player's side to
// the winning side. Rows with no recorded side count as losses in a
// decided match; they carry no rating either, so aggregates never see
// them.
func matchResult(team model.Team, scoreT, scoreCT int) string {
	switch {
	case scoreT > scoreCT:
		if team == model.TeamT {
			return model.ResultWin
		}
		return model.ResultLoss
	case scoreCT > scoreT:
		if team == model.TeamCT {
			return model.ResultWin
		}
		return model.ResultLoss
	default:
		return model.ResultDraw
	}
}

// scoresFromLabeledString recovers side scores from a labeled string
// like "T 13 - CT 7", used when the caller supplied no numeric scores.
// Anything unparseable leaves both sides at zero.
func scoresFromLabeledString(s string) (scoreT, scoreCT int) {
	if !strings.Contains(s, "T") || !strings.Contains(s, "CT") {
		return 0, 0
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	t, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(parts[0], "T", "")))
	if err != nil {
		return 0, 0
	}
	ct, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(parts[1], "CT", "")))
	if err != nil {
		return 0, 0
	}
	return t, ct
}

func realPlatformID(cybershokeID string) bool {
	return cybershokeID != "" && cybershokeID != ManualID
}

func marshalHistogram(m map[string]int) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeHistogram tolerates the legacy "0" placeholder and any other
// junk by returning nil, which readers treat as no data.
func decodeHistogram(s string) map[string]int {
	if s == "" || s == "0" {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
