package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/ingest"
)

var (
	ingestWebPath  string
	ingestID       string
	ingestForce    bool
	ingestLobbyURL string
	ingestWebOnly  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <parsed-demo.json>",
	Short: "Ingest one parsed match into the store",
	Long: "Read a parser output document, reconcile it with an optional scraped web " +
		"scoreboard, compute ratings and store the match. With --web-only the " +
		"argument is the web scoreboard itself and demo-derived fields stay zero.",
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestWebPath, "web", "", "scraped web scoreboard JSON to reconcile against")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "platform match id (omit for a manual entry)")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "replace the match if it was already analyzed")
	ingestCmd.Flags().StringVar(&ingestLobbyURL, "lobby-url", "", "lobby URL to store with the match")
	ingestCmd.Flags().BoolVar(&ingestWebOnly, "web-only", false, "ingest from a web scoreboard alone")
}

func runIngest(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	job := ingest.Job{
		PlatformID: ingestID,
		LobbyURL:   ingestLobbyURL,
		Force:      ingestForce,
		WebOnly:    ingestWebOnly,
	}
	if ingestWebOnly {
		job.WebPath = args[0]
	} else {
		job.DemoPath = args[0]
		job.WebPath = ingestWebPath
	}

	res, err := ingest.NewRunner(db).IngestOne(cmd.Context(), job)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case ingest.Ingested:
		fmt.Fprintf(os.Stdout, "Ingested %s (%s)\n", res.MatchID, res.Detail)
	case ingest.SkippedDuplicate:
		fmt.Fprintf(os.Stdout, "Skipped %s: already analyzed. Re-run with --force to replace it.\n", res.MatchID)
	case ingest.SkippedSmall:
		fmt.Fprintf(os.Stdout, "Skipped %s: %s\n", res.MatchID, res.Detail)
	}
	return nil
}
