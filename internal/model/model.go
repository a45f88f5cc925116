package model

import "time"

// Team is the side a player finished the match on. Values follow the
// demo parser's TeamNum field (Source 2 team numbers), which is treated
// as an external contract: 2 is always T, 3 is always CT. Stored rows
// depend on this encoding staying stable, so it must never be remapped.
type Team int

const (
	TeamUnknown    Team = 0
	TeamSpectators Team = 1
	TeamT          Team = 2
	TeamCT         Team = 3
)

func (t Team) String() string {
	switch t {
	case TeamT:
		return "T"
	case TeamCT:
		return "CT"
	default:
		return "?"
	}
}

// Match result tags stored per player row. Legacy rows may carry "T"
// (an old tie marker); readers that count draws accept both.
const (
	ResultWin  = "W"
	ResultLoss = "L"
	ResultDraw = "D"
)

// ---- Source records ----

// PlayerMatchStats is one player's line from a single match. The JSON
// tags mirror the demo parser's per-player output object; missing fields
// decode to zero values. MatchID, MatchResult and Rating are not part of
// the parser document, they are attached during ingestion.
type PlayerMatchStats struct {
	Name    string `json:"Player"`
	SteamID uint64 `json:"SteamID"`
	Team    Team   `json:"TeamNum"`

	Kills     int     `json:"Kills"`
	Deaths    int     `json:"Deaths"`
	Assists   int     `json:"Assists"`
	Headshots int     `json:"Headshots"`
	KDRatio   float64 `json:"K/D"`
	HSPercent float64 `json:"HS%"`
	ADR       float64 `json:"ADR"`
	Score     int     `json:"Score"`

	Damage           int `json:"Damage"`
	UtilityDamage    int `json:"UtilityDamage"`
	EnemiesFlashed   int `json:"Flashed"`
	TeammatesFlashed int `json:"TeamFlashed"`
	FlashAssists     int `json:"FlashAssists"`

	EntryKills  int `json:"EntryKills"`
	EntryDeaths int `json:"EntryDeaths"`
	ClutchWins  int `json:"ClutchWins"`
	BombPlants  int `json:"BombPlants"`
	BombDefuses int `json:"BombDefuses"`

	TotalSpent      int `json:"TotalSpent"`
	RoundsLastAlive int `json:"BaiterRating"`

	MultiKills  map[string]int `json:"MultiKills"`
	WeaponKills map[string]int `json:"WeaponKills"`

	MatchID     string   `json:"-"`
	MatchResult string   `json:"-"`
	Rating      *float64 `json:"-"`
}

// WebPlayerStats is the sparse per-player record scraped from the match
// platform's scoreboard page.
type WebPlayerStats struct {
	Kills     int `json:"kills"`
	Deaths    int `json:"deaths"`
	Assists   int `json:"assists"`
	Headshots int `json:"headshots"`
}

// WebStats is a full platform scoreboard for one match, keyed by player
// display name. Score and map carry the platform's values, or "Unknown"
// when the page did not expose them.
type WebStats struct {
	ScoreStr string                    `json:"score_str"`
	MapName  string                    `json:"map_name"`
	Players  map[string]WebPlayerStats `json:"players"`
}

// ---- Persisted match metadata ----

// MatchDetails is the per-match header row. MatchID is assigned by this
// system; CybershokeID is the platform's id and is the deduplication key
// ("manual" entries are exempt and may repeat).
type MatchDetails struct {
	MatchID      string
	CybershokeID string
	MapName      string
	ScoreT       int
	ScoreCT      int
	TotalRounds  int
	DateAnalyzed time.Time
	LobbyURL     string
}

// RecentMatch is a lightweight header row for list views.
type RecentMatch struct {
	MatchID      string
	CybershokeID string
	MapName      string
	Score        string
	DateAnalyzed time.Time
	LobbyURL     string
}

// PlayerMatchHistoryRow is one line of a player's recent match history:
// the match header plus that player's own numbers in it.
type PlayerMatchHistoryRow struct {
	MatchID      string
	MapName      string
	Score        string
	Result       string
	Kills        int
	Deaths       int
	Assists      int
	Rating       *float64
	DateAnalyzed time.Time
}

// ---- Aggregated query results ----

// PlayerAggregate holds one player's stats summed across every rated
// match inside a date window. Averages skip zero-valued samples so a
// degraded row does not drag the mean down.
type PlayerAggregate struct {
	Name    string
	Matches int

	Kills, Deaths, Assists  int
	EntryKills, EntryDeaths int
	UtilityDamage           int
	FlashAssists            int
	EnemiesFlashed          int
	BombPlants, BombDefuses int
	ClutchWins              int

	AvgADR    float64
	AvgRating float64
	AvgHSPct  float64

	Wins, Losses, Draws int
}

func (a *PlayerAggregate) KDRatio() float64 {
	if a.Deaths == 0 {
		return float64(a.Kills)
	}
	return float64(a.Kills) / float64(a.Deaths)
}

func (a *PlayerAggregate) Winrate() float64 {
	if a.Matches == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.Matches) * 100
}

// LeaderboardRow is one player's line in a season leaderboard dump.
// Totals come straight from the store; per-match averages are derived.
type LeaderboardRow struct {
	Name    string
	Matches int

	Kills, Deaths, Assists  int
	EntryKills, EntryDeaths int
	BaitRounds              int
	ClutchWins              int
	SpentCash               int
	EnemiesFlashed          int
	FlashAssists            int
	UtilityDamage           int
	BombPlants, BombDefuses int

	AvgADR    float64
	AvgRating float64
	AvgHSPct  float64

	Wins, Losses int
}

func (r *LeaderboardRow) perMatch(total int) float64 {
	if r.Matches == 0 {
		return 0
	}
	return float64(total) / float64(r.Matches)
}

func (r *LeaderboardRow) AvgKills() float64        { return r.perMatch(r.Kills) }
func (r *LeaderboardRow) AvgAssists() float64      { return r.perMatch(r.Assists) }
func (r *LeaderboardRow) AvgEntries() float64      { return r.perMatch(r.EntryKills) }
func (r *LeaderboardRow) AvgBaitRounds() float64   { return r.perMatch(r.BaitRounds) }
func (r *LeaderboardRow) AvgSpent() float64        { return r.perMatch(r.SpentCash) }
func (r *LeaderboardRow) AvgFlashed() float64      { return r.perMatch(r.EnemiesFlashed) }
func (r *LeaderboardRow) AvgUtilDamage() float64   { return r.perMatch(r.UtilityDamage) }
func (r *LeaderboardRow) AvgFlashAssists() float64 { return r.perMatch(r.FlashAssists) }
func (r *LeaderboardRow) AvgPlants() float64       { return r.perMatch(r.BombPlants) }
func (r *LeaderboardRow) AvgDefuses() float64      { return r.perMatch(r.BombDefuses) }

func (r *LeaderboardRow) KDRatio() float64 {
	if r.Deaths == 0 {
		return float64(r.Kills)
	}
	return float64(r.Kills) / float64(r.Deaths)
}

func (r *LeaderboardRow) Winrate() float64 {
	if r.Matches == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Matches) * 100
}

// ScoreboardRow is one player's line on a single match's scoreboard.
type ScoreboardRow struct {
	Name    string
	Team    Team
	Result  string
	Kills   int
	Deaths  int
	Assists int
	ADR     float64
	Rating  *float64
	HSPct   float64
	Score   int

	UtilityDamage  int
	FlashAssists   int
	EnemiesFlashed int
	EntryKills     int
	EntryDeaths    int
	TotalSpent     int

	MultiKills  map[string]int
	WeaponKills map[string]int
}

// WeaponStat is one weapon's kill total for a player across a window,
// with the per-match average used for ordering.
type WeaponStat struct {
	Weapon     string
	TotalKills int
	AvgKills   float64
}

// ---- Processing queue ----

// Registry statuses for queued matches.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// RegistryEntry is one row of the match processing queue.
type RegistryEntry struct {
	MatchID     string
	Status      string
	AddedAt     time.Time
	ProcessedAt *time.Time
	Source      string
}

// Lobby is one tracked platform lobby and its analysis state.
type Lobby struct {
	LobbyID   string
	CreatedAt time.Time
	HasDemo   bool
	Status    string
	Notes     string
}
