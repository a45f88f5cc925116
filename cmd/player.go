package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var (
	playerSeason  string
	playerStart   string
	playerEnd     string
	playerHistory int
	playerWeapons int
)

var playerCmd = &cobra.Command{
	Use:   "player <name-or-steamid>",
	Short: "Career card for one player",
	Long: "Aggregate a player's rated matches into a career card, with recent " +
		"match history and weapon totals. The player can be named by display " +
		"name or platform steam id; rows stored under old names are bridged " +
		"through the learned id.",
	Args: cobra.ExactArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().StringVar(&playerSeason, "season", "", "limit to a named season window")
	playerCmd.Flags().StringVar(&playerStart, "start", "", "window start date (YYYY-MM-DD)")
	playerCmd.Flags().StringVar(&playerEnd, "end", "", "window end date, inclusive (YYYY-MM-DD)")
	playerCmd.Flags().IntVar(&playerHistory, "history", 5, "recent matches to show (0 to hide)")
	playerCmd.Flags().IntVar(&playerWeapons, "weapons", 8, "weapon rows to show (0 to hide)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	from, to, label, err := resolveWindow(playerSeason, playerStart, playerEnd)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	agg, err := db.GetPlayerAggregate(cmd.Context(), identifier, from, to)
	if err != nil {
		return fmt.Errorf("aggregate player: %w", err)
	}
	if agg == nil {
		fmt.Fprintf(os.Stderr, "No rated matches found for %q (%s)\n", identifier, label)
		return nil
	}

	fmt.Fprintf(os.Stdout, "\nWindow: %s\n", label)
	report.PrintPlayerCard(os.Stdout, agg)

	if playerHistory > 0 {
		hist, err := db.GetPlayerMatchHistory(cmd.Context(), identifier, playerHistory)
		if err != nil {
			return fmt.Errorf("match history: %w", err)
		}
		if len(hist) > 0 {
			fmt.Fprintln(os.Stdout, "\nRecent matches:")
			report.PrintPlayerHistory(os.Stdout, hist)
		}
	}

	if playerWeapons > 0 {
		weapons, err := db.GetPlayerWeaponTotals(cmd.Context(), identifier, from, to, playerWeapons)
		if err != nil {
			return fmt.Errorf("weapon totals: %w", err)
		}
		if len(weapons) > 0 {
			fmt.Fprintln(os.Stdout, "\nWeapons:")
			report.PrintWeaponTotals(os.Stdout, weapons)
		}
	}
	return nil
}
