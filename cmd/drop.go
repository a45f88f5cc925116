package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/storage"
)

var dropForce bool

// dropCmd deletes one match, or with no argument the whole database.
var dropCmd = &cobra.Command{
	Use:   "drop [match-id]",
	Short: "Delete a stored match, or the whole database",
	Long: "With a match id, delete that match and all its player rows. With no " +
		"argument, delete the SQLite database file itself. Either form asks " +
		"for --force before touching anything.",
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return dropOneMatch(cmd, args[0])
	}

	if dbDriver != storage.DriverSQLite {
		return fmt.Errorf("dropping the whole database is only supported for the sqlite driver")
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneMatch(cmd *cobra.Command, matchID string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete match %s and its player rows.\n", matchID)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	dropped, err := db.DropMatch(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("drop match: %w", err)
	}
	if !dropped {
		fmt.Fprintf(os.Stdout, "No match found with id %q\n", matchID)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Deleted match %s\n", matchID)
	return nil
}
