package engine

import "time"

// Phase describes where a game is in the reveal cycle
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseOneRevealed           Phase = "one_revealed"
	PhaseAwaitingMismatchReset Phase = "awaiting_mismatch_reset"
	PhaseComplete              Phase = "complete"
)

// Outcome describes what a single reveal did to the game
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeFirst    Outcome = "first"
	OutcomeMatch    Outcome = "match"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeVictory  Outcome = "victory"
)

const (
	// Validation constants
	MinPairs             = 1
	MaxPairs             = 64
	MaxFaceKeyPool       = 256
	MaxMismatchDelayMs   = 10000
	DefaultMismatchDelay = 1000
	DefaultFaceKeyPool   = 33
	DefaultFaceAssetPath = "/images/card_%02d.png"
	WebSocketBufferSize  = 256
	MaxPendingReveal     = 2
	DefaultHistoryPage   = 20
	MaxHistoryPageSize   = 100

	// ElapsedPlaceholder in messages.victory is replaced with the final MM:SS time
	ElapsedPlaceholder = "{time}"
)

// Card is a single card on the board
type Card struct {
	ID        int    `json:"id"`
	FaceKey   int    `json:"face_key"`
	FaceAsset string `json:"face_asset,omitempty"`
	Revealed  bool   `json:"revealed"`
	Matched   bool   `json:"matched"`
}

// GameConfig describes a difficulty tier loaded from JSON
type GameConfig struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	PairCount           int    `json:"pair_count"`
	FaceKeyPoolSize     int    `json:"face_key_pool_size"`
	Columns             int    `json:"columns"`
	MismatchDelayMs     int    `json:"mismatch_delay_ms"`
	AutoResolveMismatch bool   `json:"auto_resolve_mismatch"`
	FaceAssetPattern    string `json:"face_asset_pattern,omitempty"`
	Messages            struct {
		Welcome  string `json:"welcome"`
		Match    string `json:"match"`
		Mismatch string `json:"mismatch"`
		Victory  string `json:"victory"`
	} `json:"messages"`
}

// GameState is the complete state of one dealt game
type GameState struct {
	GameID        string        `json:"game_id"`
	ConfigName    string        `json:"config_name"`
	Cards         []Card        `json:"cards"`
	PendingReveal []int         `json:"pending_reveal"`
	Moves         int           `json:"moves"`
	MatchedPairs  int           `json:"matched_pairs"`
	TotalPairs    int           `json:"total_pairs"`
	Complete      bool          `json:"complete"`
	Message       string        `json:"message"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	History       []RevealEntry `json:"history"`

	// Computed helper views (not required for core game logic)
	Phase          Phase  `json:"phase,omitempty"`
	Elapsed        string `json:"elapsed,omitempty"`
	ResolveAfterMs int    `json:"resolve_after_ms,omitempty"`
}

// RevealEntry records a single effective reveal
type RevealEntry struct {
	CardID     int     `json:"card_id"`
	FaceKey    int     `json:"face_key"`
	Outcome    Outcome `json:"outcome"`
	MoveNumber int     `json:"move_number"`
	Timestamp  int64   `json:"timestamp"`
}
