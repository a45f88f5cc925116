package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "number of matches to list")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.GetRecentMatches(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'stattrack ingest <parsed-demo.json>' to add one.")
		return nil
	}

	report.PrintRecentMatches(os.Stdout, matches)
	return nil
}
