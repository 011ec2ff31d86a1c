package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	NewGame(pairCount, poolSize int) (*GameState, error)
	Reset() *GameState
	IsComplete() bool
	GameID() string

	// Reveal cycle
	RevealCard(id int) Outcome
	ResolveMismatch() bool
	ResolveMismatchFor(gameID string) bool

	// Read accessors
	GetCards() []Card
	GetMoves() int
	GetMatchedPairs() int
	GetTotalPairs() int
	GetPendingReveal() []int
	GetPhase() Phase

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetRevealHistory() []RevealEntry
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRandomSource replaces the crypto-seeded generator used for dealing
func WithRandomSource(rng RandomSource) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithClock replaces time.Now for start/completion timestamps
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		e.now = now
	}
}

// GameEngine implements the Engine interface. It is not safe for concurrent use;
// callers serialize access to one engine.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    RandomSource
	now    func() time.Time
}

// NewEngine creates a new game engine and deals the first game from the configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := newEngine(config, opts)
	if _, err := e.NewGame(config.PairCount, config.FaceKeyPoolSize); err != nil {
		return nil, err
	}
	return e, nil
}

func newEngine(config *GameConfig, opts []Option) *GameEngine {
	e := &GameEngine{
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewRandomSource()
	}
	return e
}

// GetState returns a read-only snapshot of the current game
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// SetState replaces the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := ValidateGameState(state); err != nil {
		return err
	}
	restored := state.Clone()
	restored.Phase = ""
	restored.Elapsed = ""
	restored.ResolveAfterMs = 0
	e.state = restored
	return nil
}

// NewGame deals a fresh game, replacing the current one wholesale.
// On error the current game is left untouched.
func (e *GameEngine) NewGame(pairCount, poolSize int) (*GameState, error) {
	if err := e.deal(pairCount, poolSize); err != nil {
		return nil, err
	}
	return e.GetState(), nil
}

func (e *GameEngine) deal(pairCount, poolSize int) error {
	keys, err := SelectFaceKeys(pairCount, poolSize, e.rng)
	if err != nil {
		return err
	}

	pattern := DefaultFaceAssetPath
	welcome := ""
	configName := ""
	if e.config != nil {
		pattern = e.config.FaceAssetPattern
		welcome = e.config.Messages.Welcome
		configName = e.config.Name
	}

	e.state = &GameState{
		GameID:        uuid.NewString(),
		ConfigName:    configName,
		Cards:         BuildDeck(keys, pattern, e.rng),
		PendingReveal: []int{},
		TotalPairs:    pairCount,
		Message:       welcome,
		StartedAt:     e.now(),
		History:       []RevealEntry{},
	}
	return nil
}

// Reset deals a new game using the current configuration
func (e *GameEngine) Reset() *GameState {
	config := e.config
	if config == nil {
		config = DefaultConfig()
	}
	// Config was validated on the way in, so dealing cannot fail here
	_ = e.deal(config.PairCount, config.FaceKeyPoolSize)
	return e.GetState()
}

// IsComplete returns whether all pairs have been found
func (e *GameEngine) IsComplete() bool {
	return e.state.Complete
}

// GameID identifies the currently dealt game
func (e *GameEngine) GameID() string {
	return e.state.GameID
}

// RevealCard turns a card face up. Reveals that are not allowed in the current
// phase, or that target unknown, matched or already revealed cards, change nothing
// and report OutcomeIgnored.
func (e *GameEngine) RevealCard(id int) Outcome {
	s := e.state
	if s.Complete || len(s.PendingReveal) >= MaxPendingReveal {
		return OutcomeIgnored
	}

	idx := s.cardIndex(id)
	if idx < 0 {
		return OutcomeIgnored
	}
	card := &s.Cards[idx]
	if card.Matched || card.Revealed {
		return OutcomeIgnored
	}

	card.Revealed = true
	s.PendingReveal = append(s.PendingReveal, id)

	if len(s.PendingReveal) == 1 {
		s.addHistory(card, OutcomeFirst, s.Moves+1, e.now())
		return OutcomeFirst
	}

	s.Moves++
	first := &s.Cards[s.cardIndex(s.PendingReveal[0])]

	if first.FaceKey != card.FaceKey {
		s.Message = e.message(func(c *GameConfig) string { return c.Messages.Mismatch })
		s.addHistory(card, OutcomeMismatch, s.Moves, e.now())
		return OutcomeMismatch
	}

	first.Matched = true
	card.Matched = true
	s.MatchedPairs++
	s.PendingReveal = []int{}

	if s.MatchedPairs == s.TotalPairs {
		completed := e.now()
		s.Complete = true
		s.CompletedAt = &completed
		victory := e.message(func(c *GameConfig) string { return c.Messages.Victory })
		victory = strings.ReplaceAll(victory, ElapsedPlaceholder, FormatElapsed(s.ElapsedAt(completed)))
		s.Message = formatCount(victory, s.Moves)
		s.addHistory(card, OutcomeVictory, s.Moves, completed)
		return OutcomeVictory
	}

	s.Message = e.message(func(c *GameConfig) string { return c.Messages.Match })
	s.addHistory(card, OutcomeMatch, s.Moves, e.now())
	return OutcomeMatch
}

// ResolveMismatch turns a pending mismatched pair face down again.
// It reports whether anything changed; with no mismatch pending it is a no-op.
func (e *GameEngine) ResolveMismatch() bool {
	s := e.state
	if len(s.PendingReveal) != MaxPendingReveal {
		return false
	}

	for _, id := range s.PendingReveal {
		if idx := s.cardIndex(id); idx >= 0 && !s.Cards[idx].Matched {
			s.Cards[idx].Revealed = false
		}
	}
	s.PendingReveal = []int{}
	s.Message = ""
	return true
}

// ResolveMismatchFor resolves only if gameID still names the current game, so a
// resolution scheduled against an earlier deal never touches a newer one.
func (e *GameEngine) ResolveMismatchFor(gameID string) bool {
	if gameID != e.state.GameID {
		return false
	}
	return e.ResolveMismatch()
}

// GetCards returns a copy of the board in layout order
func (e *GameEngine) GetCards() []Card {
	return append([]Card(nil), e.state.Cards...)
}

// GetMoves returns the number of completed comparisons
func (e *GameEngine) GetMoves() int {
	return e.state.Moves
}

// GetMatchedPairs returns the number of pairs found so far
func (e *GameEngine) GetMatchedPairs() int {
	return e.state.MatchedPairs
}

// GetTotalPairs returns the number of pairs dealt
func (e *GameEngine) GetTotalPairs() int {
	return e.state.TotalPairs
}

// GetPendingReveal returns the ids of revealed but unresolved cards
func (e *GameEngine) GetPendingReveal() []int {
	return append([]int{}, e.state.PendingReveal...)
}

// GetPhase returns the current reveal-cycle phase
func (e *GameEngine) GetPhase() Phase {
	return e.state.CurrentPhase()
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig switches difficulty tier and deals a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	prev := e.config
	e.config = config
	if err := e.deal(config.PairCount, config.FaceKeyPoolSize); err != nil {
		e.config = prev
		return err
	}
	return nil
}

// GetRevealHistory returns the reveals of the current game
func (e *GameEngine) GetRevealHistory() []RevealEntry {
	return append([]RevealEntry{}, e.state.History...)
}

func (e *GameEngine) message(pick func(*GameConfig) string) string {
	if e.config == nil {
		return ""
	}
	return pick(e.config)
}

func formatCount(template string, n int) string {
	if verbs, _ := countIntVerbs(template); verbs == 1 {
		return fmt.Sprintf(template, n)
	}
	return template
}
