package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrInvalidSessionID     = service.ErrInvalidSessionID
)

// MaxSessionIDLength bounds caller-chosen session ids
const MaxSessionIDLength = 64

// Manager handles game session lifecycle
type Manager struct {
	sessions      map[string]*service.Session
	persistence   SessionPersistence
	engineOptions []engine.Option
	logger        *logrus.Logger
	mu            sync.RWMutex
}

// Option customizes a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEngineOptions passes options to every engine the manager creates
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) {
		m.engineOptions = append(m.engineOptions, opts...)
	}
}

// NewManager creates a new in-memory session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...Option) *Manager {
	m := NewManager(opts...)
	m.persistence = persistence
	return m
}

// ValidateSessionID accepts ids made of letters, digits, '-' and '_'
func ValidateSessionID(id string) error {
	if id == "" || len(id) > MaxSessionIDLength {
		return ErrInvalidSessionID
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidSessionID
		}
	}
	return nil
}

// Create creates a new session with the given ID and configuration.
// An empty id gets a generated 4-character one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(config, m.engineOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:        id,
		Engine:    eng,
		Config:    config,
		CreatedAt: now,
	}
	session.Touch(now)

	m.sessions[strings.ToLower(id)] = session

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			m.logger.WithError(err).WithField("session", id).Warn("Failed to persist new session")
		}
	}

	return session, nil
}

// Get retrieves a session by ID (case-insensitive), falling back to persistence
func (m *Manager) Get(id string) (*service.Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, ErrSessionNotFound
	}
	key := strings.ToLower(id)

	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		loaded, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// Another caller may have loaded it meanwhile
		if current, ok := m.sessions[key]; ok {
			return current, nil
		}
		m.sessions[key] = loaded
		m.logger.WithField("session", id).Debug("Session restored from storage")
		return loaded, nil
	}

	return nil, ErrSessionNotFound
}

// List returns all sessions held in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.sessions[key]
	delete(m.sessions, key)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; exists {
		delete(m.sessions, key)
		return nil
	}

	return ErrSessionNotFound
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(time.Now())
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration.
// Persisted copies are removed too, so expired games do not come back on restart.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for key, session := range m.sessions {
		if !session.LastAccessed().Before(cutoff) {
			continue
		}
		delete(m.sessions, key)
		removed++

		if m.persistence != nil && m.persistence.Exists(session.ID) {
			if err := m.persistence.Delete(session.ID); err != nil {
				m.logger.WithError(err).WithField("session", session.ID).Warn("Failed to delete expired session from storage")
			}
		}
	}

	if removed > 0 {
		m.logger.WithField("removed", removed).Info("Expired sessions cleaned up")
	}
	return removed
}

// Count returns the number of sessions held in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns a random 4-character id not yet in use; callers hold m.mu
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) && (m.persistence == nil || !m.persistence.Exists(id)) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive); callers hold m.mu
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range sessionIDs {
		if _, exists := m.sessions[strings.ToLower(id)]; exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			m.logger.WithError(err).WithField("session", id).Warn("Failed to load persisted session")
			continue
		}

		m.sessions[strings.ToLower(id)] = session
		loadedCount++
	}

	if loadedCount > 0 {
		m.logger.WithField("count", loadedCount).Info("Loaded persisted sessions from storage")
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, session := range sessions {
		if err := m.persistence.Save(session); err != nil {
			m.logger.WithError(err).WithField("session", session.ID).Warn("Failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
