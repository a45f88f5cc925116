package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "Print the season table",
	Args:  cobra.NoArgs,
	RunE:  runSeasons,
}

func runSeasons(cmd *cobra.Command, args []string) error {
	table, err := seasonTable()
	if err != nil {
		return err
	}

	now := time.Now()
	report.PrintSeasons(os.Stdout, table.All(), now)
	fmt.Fprintf(os.Stdout, "\nCurrent: %s\n", table.Current(now).Name)
	return nil
}
