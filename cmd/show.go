package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show a stored match scoreboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID := args[0]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	details, err := db.GetMatchDetails(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if details == nil {
		fmt.Fprintf(os.Stderr, "No match found with id %q\n", matchID)
		return nil
	}

	rows, err := db.GetMatchScoreboard(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("query scoreboard: %w", err)
	}

	report.PrintMatchHeader(os.Stdout, details)
	report.PrintScoreboard(os.Stdout, rows)
	return nil
}
