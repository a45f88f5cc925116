package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the match store",
	Long: `Run an arbitrary SQL query against the match store and print results as a table.

Schema overview:
  match_details(match_id, cybershoke_id, date_analyzed, map, score_t, score_ct,
    total_rounds, lobby_url)
  player_match_stats(match_id, player_name, steamid TEXT, player_team, match_result,
    kills, deaths, assists, score, damage, adr, rating, headshot_kills, headshot_pct,
    kd_ratio, util_damage, enemies_flashed, team_flashed, flash_assists, total_spent,
    entry_kills, entry_deaths, clutch_wins, rounds_last_alive, bomb_plants,
    bomb_defuses, multi_kills JSON, weapon_kills JSON)
  players(name, steamid TEXT)
  match_registry(match_id, status, added_at, processed_at, source)
  cybershoke_lobbies(lobby_id, created_at, has_demo, analysis_status, notes)

Note: steamid is stored as TEXT. Use quotes: WHERE steamid = '76561198000000001'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(cmd.Context(), query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
