package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/ingest"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <exports-dir>",
	Short: "Re-ingest exported matches with current rating logic",
	Long: "Force-save every match export in a directory. Ratings are recomputed " +
		"at write time, so a refresh after a formula change brings stored " +
		"ratings up to date.",
	Args: cobra.ExactArgs(1),
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sum, err := ingest.NewRunner(db).RunRefresh(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Refreshed %d matches, %d failed\n", sum.Refreshed, sum.Failed)
	return nil
}
