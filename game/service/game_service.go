package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	NewGame(ctx context.Context, sessionID, configName string) (*engine.GameState, error)
	Reveal(ctx context.Context, sessionID string, cardID int) (*RevealResult, error)
	ResolveMismatch(ctx context.Context, sessionID, gameID string) (*ResolveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetRevealHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles difficulty tier loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// EventPublisher fans game events out to external subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event GameEvent) error
}

// StateListener receives state changes that happen outside a request,
// such as a scheduled mismatch resolution
type StateListener interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Session represents an active game session. The last access time is read
// by concurrent GETs and the cleanup routine, so it sits behind its own lock.
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	Config    *engine.GameConfig
	CreatedAt time.Time

	accessMu     sync.Mutex
	lastAccessed time.Time
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.accessMu.Lock()
	s.lastAccessed = t
	s.accessMu.Unlock()
}

// LastAccessed returns the time of the most recent access
func (s *Session) LastAccessed() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccessed
}
