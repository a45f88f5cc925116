package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Overview holds the headline numbers for the whole store.
type Overview struct {
	TotalMatches  int
	EarliestMatch time.Time
	LatestMatch   time.Time
	UniqueMaps    int
	UniquePlayers int
	TotalRounds   int
	PlayerRows    int
	RatedRows     int
}

// MapBreakdownRow counts matches and side wins for one map.
type MapBreakdownRow struct {
	MapName string
	Matches int
	TWins   int
	CTWins  int
	Ties    int
}

// ActivePlayerRow is one line of the most-active-players table.
type ActivePlayerRow struct {
	Name      string
	Matches   int
	AvgRating float64
	AvgADR    float64
}

// StatusCount counts registry entries per status.
type StatusCount struct {
	Status string
	Count  int
}

// GetOverview returns store-wide totals. All zero values mean an empty
// store, not an error.
func (db *DB) GetOverview(ctx context.Context) (Overview, error) {
	var (
		ov               Overview
		earliest, latest sql.NullString
		rounds           sql.NullInt64
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(date_analyzed), MAX(date_analyzed),
		       COUNT(DISTINCT map), SUM(total_rounds)
		FROM match_details`).
		Scan(&ov.TotalMatches, &earliest, &latest, &ov.UniqueMaps, &rounds)
	if err != nil {
		return Overview{}, fmt.Errorf("load overview: %w", err)
	}
	ov.TotalRounds = int(rounds.Int64)
	if earliest.Valid {
		if ov.EarliestMatch, err = parseTimestamp(earliest.String); err != nil {
			return Overview{}, err
		}
	}
	if latest.Valid {
		if ov.LatestMatch, err = parseTimestamp(latest.String); err != nil {
			return Overview{}, err
		}
	}

	err = db.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT player_name), COUNT(*), COUNT(rating)
		FROM player_match_stats`).
		Scan(&ov.UniquePlayers, &ov.PlayerRows, &ov.RatedRows)
	if err != nil {
		return Overview{}, fmt.Errorf("load overview: %w", err)
	}
	return ov, nil
}

// MapBreakdown counts matches per map with side win splits, most played
// map first.
func (db *DB) MapBreakdown(ctx context.Context) ([]MapBreakdownRow, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT map, COUNT(*),
		       SUM(CASE WHEN score_t > score_ct THEN 1 ELSE 0 END),
		       SUM(CASE WHEN score_ct > score_t THEN 1 ELSE 0 END),
		       SUM(CASE WHEN score_t = score_ct THEN 1 ELSE 0 END)
		FROM match_details
		GROUP BY map
		ORDER BY COUNT(*) DESC, map`)
	if err != nil {
		return nil, fmt.Errorf("load map breakdown: %w", err)
	}
	defer rows.Close()

	var out []MapBreakdownRow
	for rows.Next() {
		var r MapBreakdownRow
		if err := rows.Scan(&r.MapName, &r.Matches, &r.TWins, &r.CTWins, &r.Ties); err != nil {
			return nil, fmt.Errorf("scan map breakdown: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopPlayers returns the most active players by rated match count.
func (db *DB) TopPlayers(ctx context.Context, limit int) ([]ActivePlayerRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT player_name, COUNT(*),
		       AVG(NULLIF(rating, 0)), AVG(NULLIF(adr, 0))
		FROM player_match_stats
		WHERE rating IS NOT NULL
		GROUP BY player_name
		ORDER BY COUNT(*) DESC, player_name
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("load top players: %w", err)
	}
	defer rows.Close()

	var out []ActivePlayerRow
	for rows.Next() {
		var r ActivePlayerRow
		var rating, adr sql.NullFloat64
		if err := rows.Scan(&r.Name, &r.Matches, &rating, &adr); err != nil {
			return nil, fmt.Errorf("scan top player: %w", err)
		}
		r.AvgRating = rating.Float64
		r.AvgADR = adr.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

// RegistryStatusCounts tallies registry entries per status.
func (db *DB) RegistryStatusCounts(ctx context.Context) ([]StatusCount, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM match_registry
		GROUP BY status
		ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("load registry counts: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var r StatusCount
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, fmt.Errorf("scan registry count: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary read query and stringifies every value,
// for the sql subcommand. NULL renders as "NULL".
func (db *DB) QueryRaw(ctx context.Context, query string) (cols []string, out [][]string, err error) {
	rows, err := db.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err = rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			switch t := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(t)
			default:
				row[i] = fmt.Sprintf("%v", t)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
