package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var (
	leaderboardSeason     string
	leaderboardStart      string
	leaderboardEnd        string
	leaderboardMinMatches int
	leaderboardWide       bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Season leaderboard ranked by average rating",
	Long: "Rank every eligible player inside a date window by average rating. " +
		"Without an explicit window the current season is used. Players below " +
		"the minimum match count are dropped.",
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardSeason, "season", "", "limit to a named season window (default: current season)")
	leaderboardCmd.Flags().StringVar(&leaderboardStart, "start", "", "window start date (YYYY-MM-DD)")
	leaderboardCmd.Flags().StringVar(&leaderboardEnd, "end", "", "window end date, inclusive (YYYY-MM-DD)")
	leaderboardCmd.Flags().IntVar(&leaderboardMinMatches, "min-matches", 3, "minimum rated matches to appear on the board")
	leaderboardCmd.Flags().BoolVar(&leaderboardWide, "wide", false, "also print per-match averages")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	var (
		from, to time.Time
		label    string
	)
	if leaderboardSeason == "" && leaderboardStart == "" && leaderboardEnd == "" {
		table, err := seasonTable()
		if err != nil {
			return err
		}
		win := table.Current(time.Now())
		f, t := win.Bounds()
		if f != nil {
			from = *f
		}
		if t != nil {
			to = *t
		}
		label = win.Name
	} else {
		var err error
		if from, to, label, err = resolveWindow(leaderboardSeason, leaderboardStart, leaderboardEnd); err != nil {
			return err
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.GetSeasonLeaderboard(cmd.Context(), from, to, leaderboardMinMatches)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No players with %d+ rated matches in %s\n", leaderboardMinMatches, label)
		return nil
	}

	fmt.Fprintf(os.Stdout, "\nLeaderboard: %s (min %d matches)\n\n", label, leaderboardMinMatches)
	report.PrintLeaderboard(os.Stdout, rows)
	if leaderboardWide {
		fmt.Fprintln(os.Stdout, "\nPer-match averages:")
		report.PrintLeaderboardAverages(os.Stdout, rows)
	}
	return nil
}
