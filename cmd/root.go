package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/logging"
	"github.com/clutchphase/stattrack/internal/season"
	"github.com/clutchphase/stattrack/internal/storage"
)

var (
	dbPath   string
	dbDriver string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stattrack",
	Short: "CS2 community match tracker",
	Long:  "Ingest parsed CS2 demo stats, reconcile them with web scoreboards, and serve player and season reports.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = setupRoot
	defaultDB := filepath.Join(mustUserHome(), ".stattrack", "stattrack.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path (sqlite) or connection URL (postgres)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", storage.DriverSQLite, "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(seasonsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dropCmd)
}

// setupRoot loads .env, applies env fallbacks for flags the caller did
// not set, and wires the default logger. Flags beat env beats defaults.
func setupRoot(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	flags := rootCmd.PersistentFlags()
	if !flags.Lookup("db").Changed {
		if v := os.Getenv("STATTRACK_DB"); v != "" {
			dbPath = v
		}
	}
	if !flags.Lookup("driver").Changed {
		if v := os.Getenv("STATTRACK_DB_DRIVER"); v != "" {
			dbDriver = v
		}
	}
	if !flags.Lookup("log-level").Changed {
		if v := os.Getenv("STATTRACK_LOG_LEVEL"); v != "" {
			logLevel = v
		}
	}

	logging.Setup(logLevel, "")
	return nil
}

// openStore connects to the configured backend, creating the parent
// directory for a fresh SQLite file.
func openStore() (*storage.DB, error) {
	if dbDriver == storage.DriverSQLite && dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := storage.Open(dbDriver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// seasonTable returns the season table, honoring a YAML override from
// STATTRACK_SEASONS_FILE.
func seasonTable() (*season.Table, error) {
	if path := os.Getenv("STATTRACK_SEASONS_FILE"); path != "" {
		return season.Load(path)
	}
	return season.Default(), nil
}

// resolveWindow turns the shared --season / --start / --end flags into
// a half-open [from, to) pair. Zero times leave that side unbounded.
func resolveWindow(seasonName, startStr, endStr string) (from, to time.Time, label string, err error) {
	if seasonName != "" {
		if startStr != "" || endStr != "" {
			return from, to, "", fmt.Errorf("--season cannot be combined with --start/--end")
		}
		table, err := seasonTable()
		if err != nil {
			return from, to, "", err
		}
		win, err := table.ByName(seasonName)
		if err != nil {
			return from, to, "", err
		}
		f, t := win.Bounds()
		if f != nil {
			from = *f
		}
		if t != nil {
			to = *t
		}
		return from, to, win.Name, nil
	}

	const dayLayout = "2006-01-02"
	if startStr != "" {
		if from, err = time.ParseInLocation(dayLayout, startStr, time.UTC); err != nil {
			return from, to, "", fmt.Errorf("bad --start date: %w", err)
		}
	}
	if endStr != "" {
		end, err := time.ParseInLocation(dayLayout, endStr, time.UTC)
		if err != nil {
			return from, to, "", fmt.Errorf("bad --end date: %w", err)
		}
		// --end names the last included day.
		to = end.AddDate(0, 0, 1)
	}
	switch {
	case startStr != "" && endStr != "":
		label = startStr + " to " + endStr
	case startStr != "":
		label = "since " + startStr
	case endStr != "":
		label = "until " + endStr
	default:
		label = "all time"
	}
	return from, to, label, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
