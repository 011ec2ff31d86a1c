package engine

import (
	"strings"
	"testing"
	"time"
)

func createTestConfig() *GameConfig {
	config := &GameConfig{
		Name:             "Engine Test Config",
		Description:      "Configuration for engine integration tests",
		PairCount:        2,
		FaceKeyPoolSize:  2,
		Columns:          2,
		MismatchDelayMs:  1000,
		FaceAssetPattern: DefaultFaceAssetPath,
	}
	config.Messages.Welcome = "Welcome to engine test!"
	config.Messages.Match = "Match!"
	config.Messages.Mismatch = "No match!"
	config.Messages.Victory = "Victory in %d moves!"
	return config
}

// newOrderedEngine deals without shuffling: cards 2i and 2i+1 form the i-th pair
func newOrderedEngine(t *testing.T, config *GameConfig) *GameEngine {
	t.Helper()
	e, err := NewEngine(config, WithRandomSource(lastSource{}))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine := newOrderedEngine(t, config)

	state := engine.GetState()
	if len(state.Cards) != 4 {
		t.Fatalf("Expected 4 cards, got %d", len(state.Cards))
	}
	if state.GameID == "" {
		t.Error("Expected a game id")
	}
	if state.Moves != 0 || state.MatchedPairs != 0 {
		t.Errorf("Expected zero counters, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if state.TotalPairs != 2 {
		t.Errorf("Expected 2 total pairs, got %d", state.TotalPairs)
	}
	if len(state.PendingReveal) != 0 {
		t.Errorf("Expected no pending reveals, got %v", state.PendingReveal)
	}
	if state.Complete {
		t.Error("Expected game not to be complete initially")
	}
	if state.Phase != PhaseIdle {
		t.Errorf("Expected phase idle, got %s", state.Phase)
	}
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if state.ConfigName != config.Name {
		t.Errorf("Expected config name %q, got %q", config.Name, state.ConfigName)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestNewEngine_DefaultConfig(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if engine.GetTotalPairs() != 16 {
		t.Errorf("Expected 16 pairs, got %d", engine.GetTotalPairs())
	}
	if len(engine.GetCards()) != 32 {
		t.Errorf("Expected 32 cards, got %d", len(engine.GetCards()))
	}
}

func TestNewGame_DeckInvariant(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), WithRandomSource(NewSeededRandomSource(3)))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	for pairs := 1; pairs <= 33; pairs++ {
		state, err := engine.NewGame(pairs, 33)
		if err != nil {
			t.Fatalf("NewGame(%d, 33) failed: %v", pairs, err)
		}
		if len(state.Cards) != pairs*2 {
			t.Fatalf("Expected %d cards, got %d", pairs*2, len(state.Cards))
		}
		counts := CountFaceKeys(state.Cards)
		if len(counts) != pairs {
			t.Errorf("Expected %d distinct face keys, got %d", pairs, len(counts))
		}
		for key, n := range counts {
			if n != 2 {
				t.Errorf("Face key %d appears %d times", key, n)
			}
		}
		ids := make(map[int]bool)
		for _, c := range state.Cards {
			if c.Revealed || c.Matched {
				t.Errorf("Card %d should be face down after dealing", c.ID)
			}
			if ids[c.ID] {
				t.Errorf("Duplicate card id %d", c.ID)
			}
			ids[c.ID] = true
		}
	}
}

func TestNewGame_ResetsEverything(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	engine.RevealCard(0)
	engine.RevealCard(2)
	oldID := engine.GameID()

	state, err := engine.NewGame(3, 5)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if state.GameID == oldID {
		t.Error("Expected a new game id")
	}
	if state.Moves != 0 || state.MatchedPairs != 0 || state.Complete || len(state.PendingReveal) != 0 {
		t.Errorf("Expected fresh counters, got %+v", state)
	}
	if len(state.History) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(state.History))
	}
}

func TestNewGame_InvalidArgumentsKeepState(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	before := engine.GameID()

	if _, err := engine.NewGame(0, 10); err == nil {
		t.Error("Expected error for zero pairs")
	}
	if _, err := engine.NewGame(5, 3); err == nil {
		t.Error("Expected error for pool smaller than pair count")
	}
	if engine.GameID() != before {
		t.Error("Failed NewGame must not replace the current game")
	}
}

func TestRevealCard_Match(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())

	if got := engine.RevealCard(0); got != OutcomeFirst {
		t.Fatalf("Expected first reveal, got %s", got)
	}
	if pending := engine.GetPendingReveal(); len(pending) != 1 || pending[0] != 0 {
		t.Errorf("Expected pending [0], got %v", pending)
	}
	if engine.GetMoves() != 0 {
		t.Errorf("Expected 0 moves after one reveal, got %d", engine.GetMoves())
	}
	if engine.GetPhase() != PhaseOneRevealed {
		t.Errorf("Expected phase one_revealed, got %s", engine.GetPhase())
	}

	if got := engine.RevealCard(1); got != OutcomeMatch {
		t.Fatalf("Expected match, got %s", got)
	}
	state := engine.GetState()
	if state.Moves != 1 || state.MatchedPairs != 1 {
		t.Errorf("Expected moves=1 matched=1, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if len(state.PendingReveal) != 0 {
		t.Errorf("Expected empty pending set, got %v", state.PendingReveal)
	}
	for _, id := range []int{0, 1} {
		c, _ := state.FindCard(id)
		if !c.Matched || !c.Revealed {
			t.Errorf("Card %d should be matched and face up, got %+v", id, c)
		}
	}
	if state.Message != "Match!" {
		t.Errorf("Expected match message, got %q", state.Message)
	}
}

func TestRevealCard_Mismatch(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())

	engine.RevealCard(0)
	if got := engine.RevealCard(2); got != OutcomeMismatch {
		t.Fatalf("Expected mismatch, got %s", got)
	}

	state := engine.GetState()
	if state.Moves != 1 || state.MatchedPairs != 0 {
		t.Errorf("Expected moves=1 matched=0, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if len(state.PendingReveal) != 2 || state.PendingReveal[0] != 0 || state.PendingReveal[1] != 2 {
		t.Errorf("Expected pending [0 2], got %v", state.PendingReveal)
	}
	if state.Phase != PhaseAwaitingMismatchReset {
		t.Errorf("Expected phase awaiting_mismatch_reset, got %s", state.Phase)
	}

	t.Run("third reveal blocked", func(t *testing.T) {
		if got := engine.RevealCard(3); got != OutcomeIgnored {
			t.Errorf("Expected ignored, got %s", got)
		}
		c, _ := engine.GetState().FindCard(3)
		if c.Revealed {
			t.Error("Card 3 must stay face down while a mismatch is pending")
		}
		if engine.GetMoves() != 1 {
			t.Errorf("Expected moves to stay 1, got %d", engine.GetMoves())
		}
	})

	t.Run("resolve turns both face down", func(t *testing.T) {
		if !engine.ResolveMismatch() {
			t.Fatal("Expected ResolveMismatch to change state")
		}
		state := engine.GetState()
		for _, id := range []int{0, 2} {
			c, _ := state.FindCard(id)
			if c.Revealed || c.Matched {
				t.Errorf("Card %d should be face down, got %+v", id, c)
			}
		}
		if len(state.PendingReveal) != 0 {
			t.Errorf("Expected empty pending set, got %v", state.PendingReveal)
		}
		if state.Phase != PhaseIdle {
			t.Errorf("Expected phase idle, got %s", state.Phase)
		}
	})

	t.Run("resolve is idempotent", func(t *testing.T) {
		before := engine.GetState()
		if engine.ResolveMismatch() {
			t.Error("Expected no change with nothing pending")
		}
		after := engine.GetState()
		if before.Moves != after.Moves || len(after.PendingReveal) != 0 {
			t.Error("Idle resolve must not change state")
		}
	})

	t.Run("resolve with one pending is a no-op", func(t *testing.T) {
		engine.RevealCard(3)
		if engine.ResolveMismatch() {
			t.Error("Expected no change with a single pending card")
		}
		c, _ := engine.GetState().FindCard(3)
		if !c.Revealed {
			t.Error("Single pending card must stay revealed")
		}
	})
}

func TestRevealCard_NoOps(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *GameEngine)
		id    int
	}{
		{"unknown id", func(e *GameEngine) {}, 99},
		{"negative id", func(e *GameEngine) {}, -1},
		{"already revealed", func(e *GameEngine) { e.RevealCard(0) }, 0},
		{"already matched", func(e *GameEngine) { e.RevealCard(0); e.RevealCard(1) }, 1},
		{"two pending", func(e *GameEngine) { e.RevealCard(0); e.RevealCard(2) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newOrderedEngine(t, createTestConfig())
			tt.setup(engine)
			before := engine.GetState()

			if got := engine.RevealCard(tt.id); got != OutcomeIgnored {
				t.Errorf("Expected ignored, got %s", got)
			}

			after := engine.GetState()
			if after.Moves != before.Moves || after.MatchedPairs != before.MatchedPairs {
				t.Error("Ignored reveal changed counters")
			}
			if len(after.PendingReveal) != len(before.PendingReveal) {
				t.Errorf("Ignored reveal changed pending set: %v -> %v", before.PendingReveal, after.PendingReveal)
			}
			for i := range after.Cards {
				if after.Cards[i] != before.Cards[i] {
					t.Errorf("Ignored reveal changed card %d", after.Cards[i].ID)
				}
			}
		})
	}
}

func TestRevealCard_FirstTwoPositions(t *testing.T) {
	// Either branch of the two-card scenario, depending on the deal
	for seed := uint64(0); seed < 20; seed++ {
		engine, err := NewEngine(DefaultConfig(), WithRandomSource(NewSeededRandomSource(seed)))
		if err != nil {
			t.Fatalf("NewEngine failed: %v", err)
		}
		state, err := engine.NewGame(2, 2)
		if err != nil {
			t.Fatalf("NewGame failed: %v", err)
		}
		first, second := state.Cards[0], state.Cards[1]

		engine.RevealCard(first.ID)
		outcome := engine.RevealCard(second.ID)
		after := engine.GetState()

		if after.Moves != 1 {
			t.Errorf("seed %d: expected moves=1, got %d", seed, after.Moves)
		}
		if first.FaceKey == second.FaceKey {
			if outcome != OutcomeMatch || after.MatchedPairs != 1 || len(after.PendingReveal) != 0 {
				t.Errorf("seed %d: expected match, got %s %+v", seed, outcome, after)
			}
			continue
		}

		if outcome != OutcomeMismatch || after.MatchedPairs != 0 || len(after.PendingReveal) != 2 {
			t.Errorf("seed %d: expected mismatch, got %s %+v", seed, outcome, after)
		}
		engine.ResolveMismatch()
		for _, c := range engine.GetCards() {
			if c.Revealed {
				t.Errorf("seed %d: card %d still revealed after resolve", seed, c.ID)
			}
		}
	}
}

func TestCompleteGame(t *testing.T) {
	config := createTestConfig()
	config.PairCount = 8
	config.FaceKeyPoolSize = 8
	config.Columns = 4

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	engine, err := NewEngine(config, WithRandomSource(lastSource{}), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	for pair := 0; pair < 8; pair++ {
		if engine.IsComplete() {
			t.Fatalf("Game complete after only %d pairs", pair)
		}
		now = now.Add(10 * time.Second)
		engine.RevealCard(pair * 2)
		outcome := engine.RevealCard(pair*2 + 1)

		want := OutcomeMatch
		if pair == 7 {
			want = OutcomeVictory
		}
		if outcome != want {
			t.Fatalf("Pair %d: expected %s, got %s", pair, want, outcome)
		}
	}

	state := engine.GetState()
	if !state.Complete || state.Phase != PhaseComplete {
		t.Fatalf("Expected complete game, got complete=%v phase=%s", state.Complete, state.Phase)
	}
	if state.MatchedPairs != 8 || state.Moves != 8 {
		t.Errorf("Expected 8 pairs in 8 moves, got %d in %d", state.MatchedPairs, state.Moves)
	}
	if !strings.Contains(state.Message, "8 moves") {
		t.Errorf("Expected victory message with move count, got %q", state.Message)
	}
	if state.CompletedAt == nil || !state.CompletedAt.Equal(start.Add(80*time.Second)) {
		t.Errorf("Expected completion at +80s, got %v", state.CompletedAt)
	}

	t.Run("victory message with time", func(t *testing.T) {
		timed := createTestConfig()
		timed.Messages.Victory = "You won in " + ElapsedPlaceholder + " with %d moves!"
		clock := start
		e, err := NewEngine(timed, WithRandomSource(lastSource{}), WithClock(func() time.Time { return clock }))
		if err != nil {
			t.Fatal(err)
		}
		clock = clock.Add(95 * time.Second)
		for id := 0; id < 4; id++ {
			e.RevealCard(id)
		}
		if got := e.GetState().Message; got != "You won in 01:35 with 2 moves!" {
			t.Errorf("Unexpected victory message %q", got)
		}
	})

	t.Run("absorbing", func(t *testing.T) {
		now = now.Add(time.Hour)
		for id := 0; id < 16; id++ {
			if got := engine.RevealCard(id); got != OutcomeIgnored {
				t.Errorf("Expected ignored after completion, got %s", got)
			}
		}
		if engine.ResolveMismatch() {
			t.Error("Resolve after completion must be a no-op")
		}
		after := engine.GetState()
		if !after.Complete || after.Moves != 8 {
			t.Error("Completed game changed after further calls")
		}
		if got := FormatElapsed(after.ElapsedAt(now)); got != "01:20" {
			t.Errorf("Expected elapsed frozen at 01:20, got %s", got)
		}
	})
}

func TestResolveMismatchFor(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	engine.RevealCard(0)
	engine.RevealCard(2)
	staleID := engine.GameID()

	t.Run("wrong generation ignored", func(t *testing.T) {
		if engine.ResolveMismatchFor("some-other-game") {
			t.Error("Expected no change for a foreign game id")
		}
		if len(engine.GetPendingReveal()) != 2 {
			t.Error("Pending pair must survive a foreign resolve")
		}
	})

	t.Run("new game invalidates scheduled resolve", func(t *testing.T) {
		if _, err := engine.NewGame(2, 2); err != nil {
			t.Fatalf("NewGame failed: %v", err)
		}
		engine.RevealCard(0)
		engine.RevealCard(2)

		if engine.ResolveMismatchFor(staleID) {
			t.Error("Resolve scheduled against the old game touched the new one")
		}
		if len(engine.GetPendingReveal()) != 2 {
			t.Error("New game's pending pair was cleared by a stale resolve")
		}
	})

	t.Run("current generation resolves", func(t *testing.T) {
		if !engine.ResolveMismatchFor(engine.GameID()) {
			t.Error("Expected resolve for the current game id")
		}
	})
}

func TestGetState_IsSnapshot(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	engine.RevealCard(0)

	snapshot := engine.GetState()
	snapshot.Cards[1].Revealed = true
	snapshot.PendingReveal = append(snapshot.PendingReveal, 1)
	snapshot.Moves = 42

	state := engine.GetState()
	if state.Moves != 0 || len(state.PendingReveal) != 1 {
		t.Error("Mutating a snapshot changed engine state")
	}
	if c, _ := state.FindCard(1); c.Revealed {
		t.Error("Mutating a snapshot card changed engine state")
	}
}

func TestSetState(t *testing.T) {
	source := newOrderedEngine(t, createTestConfig())
	source.RevealCard(0)
	source.RevealCard(1)
	saved := source.GetState()

	target := newOrderedEngine(t, createTestConfig())
	if err := target.SetState(saved); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if target.GameID() != saved.GameID || target.GetMatchedPairs() != 1 {
		t.Error("Restored state does not match saved state")
	}

	t.Run("nil state", func(t *testing.T) {
		if err := target.SetState(nil); err == nil {
			t.Error("Expected error for nil state")
		}
	})

	t.Run("broken pairing", func(t *testing.T) {
		broken := saved.Clone()
		broken.Cards[3].FaceKey = broken.Cards[0].FaceKey
		if err := target.SetState(broken); err == nil {
			t.Error("Expected error for a face key appearing three times")
		}
	})

	t.Run("revealed card outside pending", func(t *testing.T) {
		broken := saved.Clone()
		for i := range broken.Cards {
			if !broken.Cards[i].Matched {
				broken.Cards[i].Revealed = true
				break
			}
		}
		if err := target.SetState(broken); err == nil {
			t.Error("Expected error for a face-up card that can never be resolved")
		}
	})

	t.Run("pending card face down", func(t *testing.T) {
		broken := saved.Clone()
		for i := range broken.Cards {
			if !broken.Cards[i].Matched {
				broken.PendingReveal = []int{broken.Cards[i].ID}
				break
			}
		}
		if err := target.SetState(broken); err == nil {
			t.Error("Expected error for a pending card that is face down")
		}
	})

	t.Run("matched card pending", func(t *testing.T) {
		broken := saved.Clone()
		broken.PendingReveal = []int{0}
		if err := target.SetState(broken); err == nil {
			t.Error("Expected error for a matched card in the pending set")
		}
	})
}

func TestSetConfig(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())

	hard := BuiltinConfigs()["hard"]
	if err := engine.SetConfig(hard); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if engine.GetTotalPairs() != 24 || len(engine.GetCards()) != 48 {
		t.Errorf("Expected 24 pairs / 48 cards, got %d / %d", engine.GetTotalPairs(), len(engine.GetCards()))
	}
	if engine.GetConfig() != hard {
		t.Error("Expected config to be replaced")
	}

	invalid := createTestConfig()
	invalid.PairCount = 0
	if err := engine.SetConfig(invalid); err == nil {
		t.Error("Expected error for invalid config")
	}
	if engine.GetConfig() != hard {
		t.Error("Invalid config must not replace the current one")
	}
}

func TestReset(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	engine.RevealCard(0)
	engine.RevealCard(1)
	oldID := engine.GameID()

	state := engine.Reset()
	if state.GameID == oldID {
		t.Error("Expected reset to deal a new game")
	}
	if state.MatchedPairs != 0 || state.Moves != 0 || state.TotalPairs != 2 {
		t.Errorf("Expected a fresh 2-pair game, got %+v", state)
	}
}

func TestRevealHistory(t *testing.T) {
	engine := newOrderedEngine(t, createTestConfig())
	if len(engine.GetRevealHistory()) != 0 {
		t.Error("Expected no history on a fresh game")
	}

	engine.RevealCard(0)
	engine.RevealCard(2)
	engine.RevealCard(3) // ignored, not recorded
	engine.ResolveMismatch()
	engine.RevealCard(0)
	engine.RevealCard(1)

	history := engine.GetRevealHistory()
	want := []struct {
		card    int
		outcome Outcome
		move    int
	}{
		{0, OutcomeFirst, 1},
		{2, OutcomeMismatch, 1},
		{0, OutcomeFirst, 2},
		{1, OutcomeMatch, 2},
	}
	if len(history) != len(want) {
		t.Fatalf("Expected %d history entries, got %d", len(want), len(history))
	}
	for i, w := range want {
		h := history[i]
		if h.CardID != w.card || h.Outcome != w.outcome || h.MoveNumber != w.move {
			t.Errorf("Entry %d: expected %+v, got %+v", i, w, h)
		}
	}
}
