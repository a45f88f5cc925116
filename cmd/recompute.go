package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute every stored rating from raw counters",
	Long: "Walk every player row and recompute its rating from the stored kill, " +
		"death and multi-kill counters. Rows whose histogram is missing get a " +
		"null rating. Useful after restoring a database written by an older " +
		"build.",
	Args: cobra.NoArgs,
	RunE: runRecompute,
}

func runRecompute(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rated, nulled, err := db.RecomputeRatings(cmd.Context())
	if err != nil {
		return fmt.Errorf("recompute ratings: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Recomputed %d ratings (%d set to null)\n", rated, nulled)
	return nil
}
