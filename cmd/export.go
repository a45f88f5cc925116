package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/ingest"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <match-id>",
	Short: "Export one stored match as a parser-shaped JSON document",
	Long: "Write a stored match back out as JSON in the parser document shape, " +
		"including reconciled values and the lobby URL. Exports are the input " +
		"for 'stattrack refresh'.",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: <match-id>.json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	path := exportOut
	if path == "" {
		path = args[0] + ".json"
	}
	if err := ingest.NewRunner(db).ExportMatch(cmd.Context(), args[0], path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
	return nil
}
