package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// Event types emitted by the service
const (
	EventNewGame          = "new_game"
	EventFlip             = "flip"
	EventMatch            = "match"
	EventMismatch         = "mismatch"
	EventMismatchResolved = "mismatch_resolved"
	EventVictory          = "victory"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// RevealResult contains the result of a reveal operation
type RevealResult struct {
	Changed        bool              `json:"changed"`
	Outcome        engine.Outcome    `json:"outcome"`
	CardID         int               `json:"card_id"`
	GameState      *engine.GameState `json:"game_state"`
	Message        string            `json:"message"`
	Events         []GameEvent       `json:"events,omitempty"`
	ResolveAfterMs int               `json:"resolve_after_ms,omitempty"`
}

// ResolveResult contains the result of a mismatch resolution
type ResolveResult struct {
	Changed   bool              `json:"changed"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "new_game", "flip", "match", "mismatch", "mismatch_resolved", "victory"
	SessionID string    `json:"session_id"`
	GameID    string    `json:"game_id"`
	CardIDs   []int     `json:"card_ids,omitempty"`
	FaceKey   int       `json:"face_key,omitempty"`
	Moves     int       `json:"moves"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures reveal history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated reveal history
type HistoryResponse struct {
	Reveals      []engine.RevealEntry `json:"reveals"`
	TotalReveals int                  `json:"total_reveals"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalPages   int                  `json:"total_pages"`
	HasNext      bool                 `json:"has_next"`
	HasPrevious  bool                 `json:"has_previous"`
}

// ConfigInfo provides information about a difficulty tier
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`      // Display name
	Description     string `json:"description"`
	PairCount       int    `json:"pair_count"`
	CardCount       int    `json:"card_count"`
	Columns         int    `json:"columns"`
	MismatchDelayMs int    `json:"mismatch_delay_ms"`
}
