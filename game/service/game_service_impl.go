package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// Sentinel errors shared by the session and config layers, checked with errors.Is
var (
	ErrConfigNotFound       = errors.New("configuration not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	publisher EventPublisher
	listener  StateListener
	scheduler MismatchScheduler
	logger    *logrus.Logger
	now       func() time.Time
	mu        sync.RWMutex

	// dispatchMu is taken before mu is released so listeners see changes in commit order
	dispatchMu sync.Mutex
}

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventPublisher fans every game event out to the publisher
func WithEventPublisher(p EventPublisher) Option {
	return func(s *gameServiceImpl) {
		s.publisher = p
	}
}

// WithStateListener notifies the listener about state changes
func WithStateListener(l StateListener) Option {
	return func(s *gameServiceImpl) {
		s.listener = l
	}
}

// WithScheduler replaces the timer-based mismatch scheduler
func WithScheduler(sch MismatchScheduler) Option {
	return func(s *gameServiceImpl) {
		if sch != nil {
			s.scheduler = sch
		}
	}
}

// WithClock sets the time source used for elapsed time and event timestamps
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		scheduler: NewTimerScheduler(),
		logger:    logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadConfig resolves a tier name, listing the alternatives when it is unknown
func (s *gameServiceImpl) loadConfig(configName string) (*engine.GameConfig, error) {
	if configName == "" {
		return s.configs.GetDefault(), nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, ErrConfigNotFound) || strings.Contains(err.Error(), "configuration not found") {
		availableConfigs, listErr := s.configs.ListConfigs()
		if listErr == nil && len(availableConfigs) > 0 {
			var configIDs []string
			for _, cfg := range availableConfigs {
				configIDs = append(configIDs, cfg.ConfigID)
			}
			return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, ErrConfigNotFound)
	}
	return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()

	config, err := s.loadConfig(configName)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	state := s.enrich(session.Engine.GetState(), session.Config)
	info := &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameState:      state,
		GameConfig:     session.Config,
	}
	events := []GameEvent{s.event(EventNewGame, session.ID, state, nil, 0, state.Message)}

	s.logger.WithFields(logrus.Fields{
		"session": session.ID,
		"game_id": state.GameID,
		"config":  configID,
	}).Info("Session created")

	s.unlockAndDispatch(ctx, session.ID, nil, events)
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

func (s *gameServiceImpl) sessionInfo(session *Session) *SessionInfo {
	configName := ""
	if session.Config != nil {
		configName = session.Config.Name
	}
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(configName),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameState:      s.enrich(session.Engine.GetState(), session.Config),
		GameConfig:     session.Config,
	}
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.scheduler.Cancel(strings.ToLower(sessionID))
	s.logger.WithField("session", sessionID).Info("Session deleted")
	return nil
}

// NewGame deals a fresh game in the session. An empty configName keeps the
// session's tier; a name switches difficulty.
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID, configName string) (*engine.GameState, error) {
	s.mu.Lock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if configName != "" {
		config, err := s.loadConfig(configName)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if err := sess.Engine.SetConfig(config); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to apply config %s: %w", configName, err)
		}
		sess.Config = config
	} else {
		sess.Engine.Reset()
	}

	// Any resolution scheduled for the previous deal is obsolete
	s.scheduler.Cancel(s.timerKey(sess))

	state := s.enrich(sess.Engine.GetState(), sess.Config)
	events := []GameEvent{s.event(EventNewGame, sess.ID, state, nil, 0, state.Message)}
	s.save(sess.ID)

	s.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"game_id": state.GameID,
		"pairs":   state.TotalPairs,
	}).Info("New game dealt")

	s.unlockAndDispatch(ctx, sess.ID, state, events)
	return state, nil
}

// Reveal turns a card face up and reports what happened. Reveals the engine
// ignores are not errors; they come back with Changed=false.
func (s *gameServiceImpl) Reveal(ctx context.Context, sessionID string, cardID int) (*RevealResult, error) {
	s.mu.Lock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	prevPending := sess.Engine.GetPendingReveal()
	outcome := sess.Engine.RevealCard(cardID)
	state := s.enrich(sess.Engine.GetState(), sess.Config)

	result := &RevealResult{
		Changed:   outcome != engine.OutcomeIgnored,
		Outcome:   outcome,
		CardID:    cardID,
		GameState: state,
		Message:   state.Message,
	}

	log := s.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"game_id": state.GameID,
		"card":    cardID,
	})

	if !result.Changed {
		s.mu.Unlock()
		log.Debug("Reveal ignored")
		return result, nil
	}

	result.Events = s.revealEvents(sess.ID, state, outcome, cardID, prevPending)

	if outcome == engine.OutcomeMismatch {
		result.ResolveAfterMs = state.ResolveAfterMs
		if sess.Config != nil && sess.Config.AutoResolveMismatch {
			s.scheduleResolve(sess, state.GameID, state.Moves)
		}
	}

	s.save(sess.ID)

	log.WithField("outcome", outcome).Debug("Card revealed")
	s.unlockAndDispatch(ctx, sess.ID, state, result.Events)
	return result, nil
}

// ResolveMismatch turns a pending mismatched pair face down. A gameID that no
// longer names the current game changes nothing; an empty one means the current game.
func (s *gameServiceImpl) ResolveMismatch(ctx context.Context, sessionID, gameID string) (*ResolveResult, error) {
	return s.resolve(ctx, sessionID, gameID, -1)
}

// resolve applies a resolution; moves >= 0 additionally requires the move
// count to be unchanged since the resolution was scheduled
func (s *gameServiceImpl) resolve(ctx context.Context, sessionID, gameID string, moves int) (*ResolveResult, error) {
	s.mu.Lock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	if gameID == "" {
		gameID = sess.Engine.GameID()
	}

	pending := sess.Engine.GetPendingReveal()
	changed := false
	if moves < 0 || sess.Engine.GetMoves() == moves {
		changed = sess.Engine.ResolveMismatchFor(gameID)
	}
	state := s.enrich(sess.Engine.GetState(), sess.Config)
	result := &ResolveResult{Changed: changed, GameState: state}

	if !changed {
		s.mu.Unlock()
		return result, nil
	}

	if moves < 0 {
		s.scheduler.Cancel(s.timerKey(sess))
	}
	result.Events = []GameEvent{s.event(EventMismatchResolved, sess.ID, state, pending, 0, "Cards turned face down")}
	s.save(sess.ID)

	s.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"game_id": gameID,
	}).Debug("Mismatch resolved")

	s.unlockAndDispatch(ctx, sess.ID, state, result.Events)
	return result, nil
}

func (s *gameServiceImpl) scheduleResolve(sess *Session, gameID string, moves int) {
	sessionID := sess.ID
	delay := time.Duration(sess.Config.MismatchDelayMs) * time.Millisecond
	s.scheduler.Schedule(s.timerKey(sess), delay, func() {
		if _, err := s.resolve(context.Background(), sessionID, gameID, moves); err != nil {
			s.logger.WithError(err).WithField("session", sessionID).Warn("Scheduled mismatch resolution failed")
		}
	})
}

func (s *gameServiceImpl) timerKey(sess *Session) string {
	return strings.ToLower(sess.ID)
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.enrich(sess.Engine.GetState(), sess.Config), nil
}

// GetRevealHistory returns paginated reveal history
func (s *gameServiceImpl) GetRevealHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.Engine.GetRevealHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = engine.DefaultHistoryPage
	}
	if opts.Limit > engine.MaxHistoryPageSize {
		opts.Limit = engine.MaxHistoryPageSize
	}
	opts.Order = strings.ToLower(opts.Order)
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	reveals := []engine.RevealEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				reveals = append(reveals, history[i])
			}
		} else {
			reveals = append(reveals, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Reveals:      reveals,
		TotalReveals: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available difficulty tiers
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific difficulty tier
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a difficulty tier to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// enrich fills in the derived fields clients render
func (s *gameServiceImpl) enrich(state *engine.GameState, config *engine.GameConfig) *engine.GameState {
	state.Elapsed = engine.FormatElapsed(state.ElapsedAt(s.now()))
	state.ResolveAfterMs = 0
	if state.Phase == engine.PhaseAwaitingMismatchReset && config != nil {
		state.ResolveAfterMs = config.MismatchDelayMs
	}
	return state
}

func (s *gameServiceImpl) save(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Warn("Failed to persist session")
	}
}

// revealEvents describes an effective reveal as events
func (s *gameServiceImpl) revealEvents(sessionID string, state *engine.GameState, outcome engine.Outcome, cardID int, prevPending []int) []GameEvent {
	card, _ := state.FindCard(cardID)
	events := []GameEvent{
		s.event(EventFlip, sessionID, state, []int{cardID}, card.FaceKey, fmt.Sprintf("Card %d revealed", cardID)),
	}

	pair := append(append([]int{}, prevPending...), cardID)
	switch outcome {
	case engine.OutcomeMatch:
		events = append(events, s.event(EventMatch, sessionID, state, pair, card.FaceKey, state.Message))
	case engine.OutcomeMismatch:
		events = append(events, s.event(EventMismatch, sessionID, state, pair, 0, state.Message))
	case engine.OutcomeVictory:
		events = append(events,
			s.event(EventMatch, sessionID, state, pair, card.FaceKey, "Final pair found"),
			s.event(EventVictory, sessionID, state, nil, 0, state.Message),
		)
	}
	return events
}

func (s *gameServiceImpl) event(eventType, sessionID string, state *engine.GameState, cardIDs []int, faceKey int, message string) GameEvent {
	return GameEvent{
		Type:      eventType,
		SessionID: sessionID,
		GameID:    state.GameID,
		CardIDs:   cardIDs,
		FaceKey:   faceKey,
		Moves:     state.Moves,
		Message:   message,
		Timestamp: s.now(),
	}
}

// unlockAndDispatch releases mu, then delivers state and events. A change
// committed later cannot be delivered before this one.
func (s *gameServiceImpl) unlockAndDispatch(ctx context.Context, sessionID string, state *engine.GameState, events []GameEvent) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.mu.Unlock()
	s.dispatch(ctx, sessionID, state, events)
}

// dispatch hands state and events to the listener and publisher
func (s *gameServiceImpl) dispatch(ctx context.Context, sessionID string, state *engine.GameState, events []GameEvent) {
	if s.listener != nil {
		if state != nil {
			s.listener.BroadcastToSession(sessionID, state)
		}
		for _, ev := range events {
			s.listener.BroadcastEvent(sessionID, ev.Type, ev)
		}
	}

	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"session": sessionID,
				"event":   ev.Type,
			}).Warn("Failed to publish game event")
		}
	}
}
