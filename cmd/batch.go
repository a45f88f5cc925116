package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/ingest"
	"github.com/clutchphase/stattrack/internal/logging"
	"github.com/clutchphase/stattrack/internal/storage"
)

var (
	batchConcurrency int
	batchForce       bool
	batchLogFile     string
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Ingest a directory of parsed matches",
	Long: "Ingest every <platform-id>.json parser document in a directory, pairing " +
		"each with its <platform-id>.web.json scoreboard when present. Jobs run " +
		"concurrently, one job per platform id, and the match registry records " +
		"the outcome of each.",
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "number of matches ingested in parallel")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "replace matches that were already analyzed")
	batchCmd.Flags().StringVar(&batchLogFile, "log-file", "", "rotating log file (default: import_log.txt next to the database)")
}

// batchLogPath picks the audit-log destination: the flag, then the
// STATTRACK_LOG_FILE env, then a file beside the SQLite database. A
// postgres URL has no directory to sit next to, so there the tee stays
// off unless asked for.
func batchLogPath() string {
	if batchLogFile != "" {
		return batchLogFile
	}
	if v := os.Getenv("STATTRACK_LOG_FILE"); v != "" {
		return v
	}
	if dbDriver == storage.DriverSQLite && dbPath != ":memory:" {
		return filepath.Join(filepath.Dir(dbPath), "import_log.txt")
	}
	return ""
}

func runBatch(cmd *cobra.Command, args []string) error {
	if path := batchLogPath(); path != "" {
		logging.Setup(logLevel, path)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sum, err := ingest.NewRunner(db).RunBatch(cmd.Context(), ingest.BatchOptions{
		Dir:         args[0],
		Concurrency: batchConcurrency,
		Force:       batchForce,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Processed %d matches: %d ingested, %d duplicates, %d small, %d failed\n",
		sum.Processed, sum.Ingested, sum.Duplicates, sum.Small, sum.Failed)
	if sum.Failed > 0 {
		fmt.Fprintln(os.Stdout, "Failed matches keep status 'failed' in the registry; see 'stattrack queue list'.")
	}
	return nil
}
