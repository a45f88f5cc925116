package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/report"
	"github.com/clutchphase/stattrack/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the store. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	ctx := cmd.Context()

	cGreeting.Println("stattrack shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("stattrack")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			limit := 10
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
					limit = n
				}
			}
			shellList(ctx, db, limit)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <match-id>")
				continue
			}
			shellShow(ctx, db, args[0])
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name-or-steamid> [...]")
				continue
			}
			shellPlayer(ctx, db, args)
		case "leaderboard", "board":
			minMatches := 3
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
					minMatches = n
				}
			}
			shellLeaderboard(ctx, db, minMatches)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q — type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list [n]", "list recent matches"},
		{"show <match-id>", "show a match scoreboard"},
		{"player <name-or-steamid> [...]", "career card for one or more players"},
		{"leaderboard [min-matches]", "current season leaderboard"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-34s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(ctx context.Context, db *storage.DB, limit int) {
	matches, err := db.GetRecentMatches(ctx, limit)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-24s  %-14s  %7s  %s\n",
		"MATCH", "MAP", "SCORE", "ANALYZED")
	cMuted.Fprintf(os.Stdout, "%-24s  %-14s  %7s  %s\n",
		"────────────────────────", "──────────────", "───────", "────────────────")
	for _, m := range matches {
		fmt.Fprintf(os.Stdout, "%-24s  %-14s  %7s  %s\n",
			m.MatchID, m.MapName, m.Score, m.DateAnalyzed.Format("2006-01-02 15:04"))
	}
}

func shellShow(ctx context.Context, db *storage.DB, matchID string) {
	details, err := db.GetMatchDetails(ctx, matchID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if details == nil {
		cWarn.Fprintf(os.Stderr, "no match found with id %q\n", matchID)
		return
	}
	rows, err := db.GetMatchScoreboard(ctx, matchID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintMatchHeader(os.Stdout, details)
	report.PrintScoreboard(os.Stdout, rows)
}

func shellPlayer(ctx context.Context, db *storage.DB, args []string) {
	for _, arg := range args {
		agg, err := db.GetPlayerAggregate(ctx, arg, time.Time{}, time.Time{})
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if agg == nil {
			cWarn.Fprintf(os.Stderr, "no rated matches found for %q\n", arg)
			continue
		}
		report.PrintPlayerCard(os.Stdout, agg)
	}
}

func shellLeaderboard(ctx context.Context, db *storage.DB, minMatches int) {
	table, err := seasonTable()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	win := table.Current(time.Now())
	from, to := win.Bounds()
	var f, t time.Time
	if from != nil {
		f = *from
	}
	if to != nil {
		t = *to
	}
	rows, err := db.GetSeasonLeaderboard(ctx, f, t, minMatches)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(rows) == 0 {
		cMuted.Printf("No players with %d+ rated matches in %s.\n", minMatches, win.Name)
		return
	}
	cHeader.Fprintf(os.Stdout, "\n%s (min %d matches)\n", win.Name, minMatches)
	report.PrintLeaderboard(os.Stdout, rows)
}
