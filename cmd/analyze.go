package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/clutchphase/stattrack/internal/model"
)

const analyzeSystemPrompt = `You are a Counter-Strike 2 performance analyst. You are given structured data
from a community match tracker and a question from the player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable — focus on what the player can actually improve.
- Avoid generic CS2 advice unless it directly explains a pattern in the data.

Metrics glossary:
- ADR: avg damage per round. Typical range 60–90. <60 is low.
- Rating: overall per-match impact. 1.00 is average, >1.15 is strong.
- K/D: kills ÷ deaths. 1.0 is break-even.
- HS%: share of kills that were headshots.
- Entry kills/deaths: won/lost the first duel of a round — high strategic value.
- Util damage: total grenade and molotov damage dealt.
- Enemies flashed: enemies meaningfully blinded by the player's flashes.
- Flash assists: kills teammates got on enemies this player blinded.
- Clutch wins: rounds converted as the last player alive.
- Bomb plants/defuses: objective play volume.
- W/L/D: match results inside the reported window.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzePlayerSeason  string
	analyzePlayerStart   string
	analyzePlayerEnd     string
	analyzePlayerHistory int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name-or-steamid> <question>",
	Short: "Analyze a player's aggregate stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <match-id> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().StringVar(&analyzePlayerSeason, "season", "", "limit to a named season window")
	analyzePlayerCmd.Flags().StringVar(&analyzePlayerStart, "start", "", "window start date (YYYY-MM-DD)")
	analyzePlayerCmd.Flags().StringVar(&analyzePlayerEnd, "end", "", "window end date, inclusive (YYYY-MM-DD)")
	analyzePlayerCmd.Flags().IntVar(&analyzePlayerHistory, "history", 5, "include the N most recent matches in the context")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	identifier, question := args[0], args[1]

	from, to, label, err := resolveWindow(analyzePlayerSeason, analyzePlayerStart, analyzePlayerEnd)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	ctx := cmd.Context()

	agg, err := db.GetPlayerAggregate(ctx, identifier, from, to)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	if agg == nil {
		return fmt.Errorf("no rated matches found for %q (%s)", identifier, label)
	}

	history, err := db.GetPlayerMatchHistory(ctx, identifier, analyzePlayerHistory)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	weapons, err := db.GetPlayerWeaponTotals(ctx, identifier, from, to, 8)
	if err != nil {
		return fmt.Errorf("query weapons: %w", err)
	}

	contextJSON, err := buildPlayerContext(agg, history, weapons, label)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	return callAnthropic(ctx, analyzeAPIKey, analyzeModel, contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	matchID, question := args[0], args[1]

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	ctx := cmd.Context()

	details, err := db.GetMatchDetails(ctx, matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if details == nil {
		return fmt.Errorf("no match found with id %q", matchID)
	}

	rows, err := db.GetMatchScoreboard(ctx, matchID)
	if err != nil {
		return fmt.Errorf("query scoreboard: %w", err)
	}

	contextJSON, err := buildMatchContext(details, rows)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	return callAnthropic(ctx, analyzeAPIKey, analyzeModel, contextJSON, question)
}

// buildPlayerContext serialises aggregated player data into compact JSON.
func buildPlayerContext(agg *model.PlayerAggregate, history []model.PlayerMatchHistoryRow, weapons []model.WeaponStat, window string) (string, error) {
	type historyEntry struct {
		MatchID string   `json:"match_id"`
		Map     string   `json:"map"`
		Score   string   `json:"score"`
		Result  string   `json:"result"`
		Kills   int      `json:"kills"`
		Deaths  int      `json:"deaths"`
		Assists int      `json:"assists"`
		Rating  *float64 `json:"rating"`
		Date    string   `json:"date"`
	}
	recent := make([]historyEntry, 0, len(history))
	for _, h := range history {
		recent = append(recent, historyEntry{
			MatchID: h.MatchID,
			Map:     h.MapName,
			Score:   h.Score,
			Result:  h.Result,
			Kills:   h.Kills,
			Deaths:  h.Deaths,
			Assists: h.Assists,
			Rating:  h.Rating,
			Date:    h.DateAnalyzed.Format("2006-01-02"),
		})
	}

	type weaponEntry struct {
		Weapon   string  `json:"weapon"`
		Kills    int     `json:"kills"`
		PerMatch float64 `json:"per_match"`
	}
	topWeapons := make([]weaponEntry, 0, len(weapons))
	for _, w := range weapons {
		topWeapons = append(topWeapons, weaponEntry{
			Weapon:   w.Weapon,
			Kills:    w.TotalKills,
			PerMatch: round2(w.AvgKills),
		})
	}

	doc := map[string]interface{}{
		"subject":          "player",
		"player":           agg.Name,
		"matches_analyzed": agg.Matches,
		"window":           window,
		"overview": map[string]interface{}{
			"kd":          round2(agg.KDRatio()),
			"rating":      round2(agg.AvgRating),
			"adr":         round2(agg.AvgADR),
			"hs_pct":      round2(agg.AvgHSPct),
			"kills":       agg.Kills,
			"assists":     agg.Assists,
			"deaths":      agg.Deaths,
			"wins":        agg.Wins,
			"losses":      agg.Losses,
			"draws":       agg.Draws,
			"winrate_pct": round2(agg.Winrate()),
		},
		"entries": map[string]interface{}{
			"kills":  agg.EntryKills,
			"deaths": agg.EntryDeaths,
		},
		"utility": map[string]interface{}{
			"damage":          agg.UtilityDamage,
			"enemies_flashed": agg.EnemiesFlashed,
			"flash_assists":   agg.FlashAssists,
		},
		"objective": map[string]interface{}{
			"bomb_plants":  agg.BombPlants,
			"bomb_defuses": agg.BombDefuses,
			"clutch_wins":  agg.ClutchWins,
		},
		"recent_matches": recent,
		"top_weapons":    topWeapons,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises a single match scoreboard into compact JSON.
func buildMatchContext(details *model.MatchDetails, rows []model.ScoreboardRow) (string, error) {
	type playerEntry struct {
		Name    string   `json:"name"`
		Team    string   `json:"team"`
		Result  string   `json:"result"`
		Kills   int      `json:"kills"`
		Assists int      `json:"assists"`
		Deaths  int      `json:"deaths"`
		ADR     float64  `json:"adr"`
		HSPct   float64  `json:"hs_pct"`
		Rating  *float64 `json:"rating"`
		EntryK  int      `json:"entry_k"`
		EntryD  int      `json:"entry_d"`
		UtilDmg int      `json:"util_dmg"`
		Flashed int      `json:"enemies_flashed"`
		Spent   int      `json:"total_spent"`
	}

	players := make([]playerEntry, 0, len(rows))
	for _, r := range rows {
		players = append(players, playerEntry{
			Name:    r.Name,
			Team:    r.Team.String(),
			Result:  r.Result,
			Kills:   r.Kills,
			Assists: r.Assists,
			Deaths:  r.Deaths,
			ADR:     round2(r.ADR),
			HSPct:   round2(r.HSPct),
			Rating:  r.Rating,
			EntryK:  r.EntryKills,
			EntryD:  r.EntryDeaths,
			UtilDmg: r.UtilityDamage,
			Flashed: r.EnemiesFlashed,
			Spent:   r.TotalSpent,
		})
	}

	doc := map[string]interface{}{
		"subject": "match",
		"map":     details.MapName,
		"date":    details.DateAnalyzed.Format("2006-01-02"),
		"score":   fmt.Sprintf("T %d - CT %d", details.ScoreT, details.ScoreCT),
		"rounds":  details.TotalRounds,
		"players": players,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	// Use integer arithmetic to avoid floating-point drift.
	return float64(int(v*100+0.5)) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		// Provide a cleaner error message for common API errors.
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed — check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
