package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
)

var (
	queueAddSource   string
	queueListLimit   int
	queueTrackNotes  string
	queueLobbyStatus string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and feed the match registry",
}

var queueAddCmd = &cobra.Command{
	Use:   "add <platform-id>",
	Short: "Enqueue a platform match for later ingestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueAdd,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent registry entries",
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queuePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List match ids still waiting for ingestion",
	Args:  cobra.NoArgs,
	RunE:  runQueuePending,
}

var queueTrackCmd = &cobra.Command{
	Use:   "track <lobby-id>",
	Short: "Track a platform lobby until its demo shows up",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueTrack,
}

var queueLobbiesCmd = &cobra.Command{
	Use:   "lobbies",
	Short: "List tracked lobbies",
	Args:  cobra.NoArgs,
	RunE:  runQueueLobbies,
}

func init() {
	queueAddCmd.Flags().StringVar(&queueAddSource, "source", "manual", "where this id came from")
	queueListCmd.Flags().IntVar(&queueListLimit, "limit", 20, "number of entries to list")
	queueTrackCmd.Flags().StringVar(&queueTrackNotes, "notes", "", "free-form note stored with the lobby")
	queueLobbiesCmd.Flags().StringVar(&queueLobbyStatus, "status", "", "filter by analysis status")

	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queuePendingCmd)
	queueCmd.AddCommand(queueTrackCmd)
	queueCmd.AddCommand(queueLobbiesCmd)
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	matchID := "match_" + args[0]
	added, err := db.EnqueueMatch(cmd.Context(), matchID, queueAddSource)
	if err != nil {
		return err
	}
	if !added {
		status, err := db.MatchStatus(cmd.Context(), matchID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s is already tracked (status %s)\n", matchID, status)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Queued %s\n", matchID)
	return nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.RecentRegistryEntries(cmd.Context(), queueListLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "Registry is empty.")
		return nil
	}
	report.PrintRegistry(os.Stdout, entries)
	return nil
}

func runQueuePending(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ids, err := db.PendingMatches(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing pending.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(os.Stdout, id)
	}
	return nil
}

func runQueueTrack(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	added, err := db.TrackLobby(cmd.Context(), args[0], queueTrackNotes)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(os.Stdout, "Lobby %s is already tracked\n", args[0])
		return nil
	}
	fmt.Fprintf(os.Stdout, "Tracking lobby %s\n", args[0])
	return nil
}

func runQueueLobbies(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	lobbies, err := db.ListLobbies(cmd.Context(), queueLobbyStatus)
	if err != nil {
		return err
	}
	if len(lobbies) == 0 {
		fmt.Fprintln(os.Stdout, "No lobbies tracked.")
		return nil
	}
	report.PrintLobbies(os.Stdout, lobbies)
	return nil
}
