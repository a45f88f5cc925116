package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/clutchphase/stattrack/internal/model"
	"github.com/clutchphase/stattrack/internal/season"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintMatchHeader prints a one-line summary header for the match.
func PrintMatchHeader(w io.Writer, d *model.MatchDetails) {
	lobby := d.LobbyURL
	if lobby == "" {
		lobby = "—"
	}
	fmt.Fprintf(w, "\nMap: %s  |  Score: T %d – CT %d  |  Rounds: %d  |  Analyzed: %s  |  %s\n\n",
		d.MapName, d.ScoreT, d.ScoreCT, d.TotalRounds,
		d.DateAnalyzed.Format("2006-01-02 15:04"), lobby)
}

// PrintScoreboard prints the per-player table for one match, best score
// first. Rows without a rating render it as "—".
func PrintScoreboard(w io.Writer, rows []model.ScoreboardRow) {
	table := newTable(w)
	table.Header("NAME", "TEAM", "RES", "K", "A", "D", "K/D", "ADR", "HS%", "RATING",
		"UTIL_DMG", "FA", "FLASHED", "ENTRY_K", "ENTRY_D", "SPENT")

	for _, r := range rows {
		table.Append(
			r.Name,
			r.Team.String(),
			r.Result,
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Assists),
			strconv.Itoa(r.Deaths),
			fmtRatio(r.Kills, r.Deaths),
			fmt.Sprintf("%.1f", r.ADR),
			fmt.Sprintf("%.0f%%", r.HSPct),
			fmtRating(r.Rating),
			strconv.Itoa(r.UtilityDamage),
			strconv.Itoa(r.FlashAssists),
			strconv.Itoa(r.EnemiesFlashed),
			strconv.Itoa(r.EntryKills),
			strconv.Itoa(r.EntryDeaths),
			strconv.Itoa(r.TotalSpent),
		)
	}
	table.Render()
}

// PrintPlayerCard prints one player's career numbers: the headline
// table, then the utility breakdown.
func PrintPlayerCard(w io.Writer, a *model.PlayerAggregate) {
	fmt.Fprintf(w, "\nPlayer: %s\n\n", a.Name)

	overview := newTable(w)
	overview.Header("MATCHES", "W", "L", "D", "WIN%", "K", "A", "D", "K/D", "RATING", "ADR", "HS%")
	overview.Append(
		strconv.Itoa(a.Matches),
		strconv.Itoa(a.Wins),
		strconv.Itoa(a.Losses),
		strconv.Itoa(a.Draws),
		fmt.Sprintf("%.1f%%", a.Winrate()),
		strconv.Itoa(a.Kills),
		strconv.Itoa(a.Assists),
		strconv.Itoa(a.Deaths),
		fmt.Sprintf("%.2f", a.KDRatio()),
		fmt.Sprintf("%.2f", a.AvgRating),
		fmt.Sprintf("%.1f", a.AvgADR),
		fmt.Sprintf("%.0f%%", a.AvgHSPct),
	)
	overview.Render()

	util := newTable(w)
	util.Header("ENTRY_K", "ENTRY_D", "UTIL_DMG", "FLASHED", "FA", "PLANTS", "DEFUSES", "CLUTCHES")
	util.Append(
		strconv.Itoa(a.EntryKills),
		strconv.Itoa(a.EntryDeaths),
		strconv.Itoa(a.UtilityDamage),
		strconv.Itoa(a.EnemiesFlashed),
		strconv.Itoa(a.FlashAssists),
		strconv.Itoa(a.BombPlants),
		strconv.Itoa(a.BombDefuses),
		strconv.Itoa(a.ClutchWins),
	)
	util.Render()
}

// PrintPlayerHistory prints a player's recent matches, newest first.
func PrintPlayerHistory(w io.Writer, rows []model.PlayerMatchHistoryRow) {
	table := newTable(w)
	table.Header("MATCH", "MAP", "SCORE", "RES", "K", "A", "D", "RATING", "DATE")

	for _, r := range rows {
		table.Append(
			r.MatchID,
			r.MapName,
			r.Score,
			r.Result,
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Assists),
			strconv.Itoa(r.Deaths),
			fmtRating(r.Rating),
			r.DateAnalyzed.Format("2006-01-02"),
		)
	}
	table.Render()
}

// PrintLeaderboard prints the season board, best average rating first.
func PrintLeaderboard(w io.Writer, rows []model.LeaderboardRow) {
	table := newTable(w)
	table.Header("#", "PLAYER", "MATCHES", "W", "L", "WIN%", "RATING", "ADR", "K/D", "HS%")

	for i, r := range rows {
		table.Append(
			strconv.Itoa(i+1),
			r.Name,
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			fmt.Sprintf("%.1f%%", r.Winrate()),
			fmt.Sprintf("%.2f", r.AvgRating),
			fmt.Sprintf("%.1f", r.AvgADR),
			fmt.Sprintf("%.2f", r.KDRatio()),
			fmt.Sprintf("%.0f%%", r.AvgHSPct),
		)
	}
	table.Render()
}

// PrintLeaderboardAverages prints the wide per-match average columns
// for the same rows, in the same order.
func PrintLeaderboardAverages(w io.Writer, rows []model.LeaderboardRow) {
	table := newTable(w)
	table.Header("PLAYER", "K/M", "A/M", "ENTRY/M", "BAIT/M", "SPENT/M",
		"FLASHED/M", "UTIL/M", "FA/M", "PLANTS/M", "DEFUSES/M", "CLUTCHES")

	for _, r := range rows {
		table.Append(
			r.Name,
			fmt.Sprintf("%.1f", r.AvgKills()),
			fmt.Sprintf("%.1f", r.AvgAssists()),
			fmt.Sprintf("%.1f", r.AvgEntries()),
			fmt.Sprintf("%.1f", r.AvgBaitRounds()),
			fmt.Sprintf("%.0f", r.AvgSpent()),
			fmt.Sprintf("%.1f", r.AvgFlashed()),
			fmt.Sprintf("%.1f", r.AvgUtilDamage()),
			fmt.Sprintf("%.1f", r.AvgFlashAssists()),
			fmt.Sprintf("%.1f", r.AvgPlants()),
			fmt.Sprintf("%.1f", r.AvgDefuses()),
			strconv.Itoa(r.ClutchWins),
		)
	}
	table.Render()
}

// PrintRecentMatches lists stored matches, newest first.
func PrintRecentMatches(w io.Writer, matches []model.RecentMatch) {
	table := newTable(w)
	table.Header("MATCH", "MAP", "SCORE", "ANALYZED", "LOBBY")

	for _, m := range matches {
		lobby := m.LobbyURL
		if lobby == "" {
			lobby = "—"
		}
		table.Append(
			m.MatchID,
			m.MapName,
			m.Score,
			m.DateAnalyzed.Format("2006-01-02 15:04"),
			lobby,
		)
	}
	table.Render()
}

// PrintWeaponTotals prints a player's per-weapon kill totals.
func PrintWeaponTotals(w io.Writer, stats []model.WeaponStat) {
	table := newTable(w)
	table.Header("WEAPON", "KILLS", "AVG/MATCH")

	for _, s := range stats {
		table.Append(s.Weapon, strconv.Itoa(s.TotalKills), fmt.Sprintf("%.1f", s.AvgKills))
	}
	table.Render()
}

// PrintRegistry prints the processing queue, newest first.
func PrintRegistry(w io.Writer, entries []model.RegistryEntry) {
	table := newTable(w)
	table.Header("MATCH", "STATUS", "ADDED", "PROCESSED", "SOURCE")

	for _, e := range entries {
		processed := "—"
		if e.ProcessedAt != nil {
			processed = e.ProcessedAt.Format("2006-01-02 15:04")
		}
		table.Append(
			e.MatchID,
			e.Status,
			e.AddedAt.Format("2006-01-02 15:04"),
			processed,
			e.Source,
		)
	}
	table.Render()
}

// PrintLobbies prints tracked platform lobbies.
func PrintLobbies(w io.Writer, lobbies []model.Lobby) {
	table := newTable(w)
	table.Header("LOBBY", "CREATED", "DEMO", "STATUS", "NOTES")

	for _, l := range lobbies {
		demo := "—"
		if l.HasDemo {
			demo = "yes"
		}
		notes := l.Notes
		if notes == "" {
			notes = "—"
		}
		table.Append(l.LobbyID, l.CreatedAt.Format("2006-01-02 15:04"), demo, l.Status, notes)
	}
	table.Render()
}

// PrintSeasons prints the season table; the window containing now is
// marked with ">".
func PrintSeasons(w io.Writer, windows []season.Window, now time.Time) {
	table := newTable(w)
	table.Header(" ", "SEASON", "START", "END")

	for _, win := range windows {
		marker := " "
		if win.Contains(now) {
			marker = ">"
		}
		table.Append(marker, win.Name, fmtDay(win.Start), fmtDay(win.End))
	}
	table.Render()
}

func fmtDay(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("2006-01-02")
}

func fmtRating(r *float64) string {
	if r == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *r)
}

func fmtRatio(kills, deaths int) string {
	if deaths == 0 {
		return fmt.Sprintf("%.2f", float64(kills))
	}
	return fmt.Sprintf("%.2f", float64(kills)/float64(deaths))
}
