package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// The tier is stored inline so a session survives edits to its config file.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameConfig     *engine.GameConfig `json:"game_config,omitempty"`
	GameState      *engine.GameState  `json:"game_state"`
}

// codec turns sessions into stored records and back, shared by every backend
type codec struct {
	configManager service.ConfigManager
}

func (c codec) encode(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	state := session.Engine.GetState()
	state.Phase = ""

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     c.configID(session.Config),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameConfig:     session.Config,
		GameState:      state,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

func (c codec) decode(jsonData []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	gameConfig := data.GameConfig
	if gameConfig == nil {
		if c.configManager == nil {
			return nil, fmt.Errorf("session %s has no stored config", data.ID)
		}
		loaded, err := c.configManager.LoadConfig(data.ConfigName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
		gameConfig = loaded
	}

	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if err := gameEngine.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	session := &service.Session{
		ID:        data.ID,
		Engine:    gameEngine,
		Config:    gameConfig,
		CreatedAt: data.CreatedAt,
	}
	session.Touch(data.LastAccessedAt)
	return session, nil
}

// configID returns the config id (filename without extension) for a tier
func (c codec) configID(config *engine.GameConfig) string {
	if config == nil {
		return ""
	}
	if c.configManager != nil {
		if configs, err := c.configManager.ListConfigs(); err == nil {
			for _, info := range configs {
				if info.Name == config.Name {
					return info.ConfigID
				}
			}
		}
	}
	// If not found, assume the display name is already the config ID
	return config.Name
}
