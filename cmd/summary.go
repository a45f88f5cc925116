package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// summaryCmd is the cobra command for displaying a high-level store overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the store",
	Long: `Display aggregate statistics about all matches in the store:
total match count, date range, map breakdown, most active players,
and the registry status distribution.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	ctx := cmd.Context()

	ov, err := db.GetOverview(ctx)
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'stattrack ingest <parsed-demo.json>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n",
		ov.EarliestMatch.Format("2006-01-02"), ov.LatestMatch.Format("2006-01-02"))
	fmt.Fprintf(os.Stdout, "  Unique maps    : %d\n", ov.UniqueMaps)
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.UniquePlayers)
	fmt.Fprintf(os.Stdout, "  Total rounds   : %d\n", ov.TotalRounds)
	fmt.Fprintf(os.Stdout, "  Rated rows     : %d of %d\n", ov.RatedRows, ov.PlayerRows)

	// Map breakdown.
	maps, err := db.MapBreakdown(ctx)
	if err != nil {
		return fmt.Errorf("get map breakdown: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Maps ---\n\n")
	mt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	mt.Header("MAP", "MATCHES", "T WINS", "CT WINS", "TIES", "T WIN%")
	for _, m := range maps {
		decided := m.TWins + m.CTWins
		tPct := 0.0
		if decided > 0 {
			tPct = 100.0 * float64(m.TWins) / float64(decided)
		}
		mt.Append(
			m.MapName,
			fmt.Sprintf("%d", m.Matches),
			fmt.Sprintf("%d", m.TWins),
			fmt.Sprintf("%d", m.CTWins),
			fmt.Sprintf("%d", m.Ties),
			fmt.Sprintf("%.0f%%", tPct),
		)
	}
	mt.Render()

	// Most active players.
	players, err := db.TopPlayers(ctx, 10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	pt.Header("NAME", "MATCHES", "AVG RATING", "AVG ADR")
	for _, p := range players {
		pt.Append(
			p.Name,
			fmt.Sprintf("%d", p.Matches),
			fmt.Sprintf("%.2f", p.AvgRating),
			fmt.Sprintf("%.1f", p.AvgADR),
		)
	}
	pt.Render()

	// Registry breakdown — only shown when something has been queued.
	statuses, err := db.RegistryStatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("get registry counts: %w", err)
	}
	if len(statuses) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Registry ---\n\n")
		st := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
		}))
		st.Header("STATUS", "MATCHES")
		for _, s := range statuses {
			st.Append(s.Status, fmt.Sprintf("%d", s.Count))
		}
		st.Render()
	}

	return nil
}
