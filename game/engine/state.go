package engine

import (
	"fmt"
	"time"
)

// CurrentPhase derives the reveal-cycle phase from the pending set
func (gs *GameState) CurrentPhase() Phase {
	switch {
	case gs.Complete:
		return PhaseComplete
	case len(gs.PendingReveal) == 1:
		return PhaseOneRevealed
	case len(gs.PendingReveal) == MaxPendingReveal:
		return PhaseAwaitingMismatchReset
	default:
		return PhaseIdle
	}
}

// Clone returns a deep copy with the phase view filled in
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Cards = append([]Card(nil), gs.Cards...)
	c.PendingReveal = append([]int{}, gs.PendingReveal...)
	c.History = append([]RevealEntry{}, gs.History...)
	if gs.CompletedAt != nil {
		t := *gs.CompletedAt
		c.CompletedAt = &t
	}
	c.Phase = gs.CurrentPhase()
	return &c
}

// ElapsedAt returns play time, frozen at completion
func (gs *GameState) ElapsedAt(now time.Time) time.Duration {
	if gs.StartedAt.IsZero() {
		return 0
	}
	end := now
	if gs.CompletedAt != nil {
		end = *gs.CompletedAt
	}
	if end.Before(gs.StartedAt) {
		return 0
	}
	return end.Sub(gs.StartedAt)
}

// FindCard returns the card with the given id
func (gs *GameState) FindCard(id int) (Card, bool) {
	if idx := gs.cardIndex(id); idx >= 0 {
		return gs.Cards[idx], true
	}
	return Card{}, false
}

// IsPending reports whether the card is in the pending set
func (gs *GameState) IsPending(id int) bool {
	for _, p := range gs.PendingReveal {
		if p == id {
			return true
		}
	}
	return false
}

func (gs *GameState) cardIndex(id int) int {
	for i := range gs.Cards {
		if gs.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (gs *GameState) addHistory(card *Card, outcome Outcome, moveNumber int, at time.Time) {
	gs.History = append(gs.History, RevealEntry{
		CardID:     card.ID,
		FaceKey:    card.FaceKey,
		Outcome:    outcome,
		MoveNumber: moveNumber,
		Timestamp:  at.Unix(),
	})
}

// ValidateGameState checks the structural invariants of a restored state
func ValidateGameState(gs *GameState) error {
	if len(gs.Cards) != gs.TotalPairs*2 {
		return fmt.Errorf("state validation: %d cards for %d pairs", len(gs.Cards), gs.TotalPairs)
	}

	ids := make(map[int]bool, len(gs.Cards))
	keys := make(map[int]int, gs.TotalPairs)
	matchedCards := 0
	for _, c := range gs.Cards {
		if ids[c.ID] {
			return fmt.Errorf("state validation: duplicate card id %d", c.ID)
		}
		ids[c.ID] = true
		keys[c.FaceKey]++
		if c.Matched {
			matchedCards++
		}
	}
	for key, n := range keys {
		if n != 2 {
			return fmt.Errorf("state validation: face key %d appears %d times", key, n)
		}
	}

	if len(gs.PendingReveal) > MaxPendingReveal {
		return fmt.Errorf("state validation: %d pending reveals", len(gs.PendingReveal))
	}
	for _, id := range gs.PendingReveal {
		c, ok := gs.FindCard(id)
		if !ok {
			return fmt.Errorf("state validation: pending card %d not on board", id)
		}
		if c.Matched {
			return fmt.Errorf("state validation: matched card %d is pending", id)
		}
		if !c.Revealed {
			return fmt.Errorf("state validation: pending card %d is face down", id)
		}
	}
	if len(gs.PendingReveal) == 2 && gs.PendingReveal[0] == gs.PendingReveal[1] {
		return fmt.Errorf("state validation: card %d pending twice", gs.PendingReveal[0])
	}
	// A face-up card outside the pending set could never be turned back
	for _, c := range gs.Cards {
		if c.Revealed && !c.Matched && !gs.IsPending(c.ID) {
			return fmt.Errorf("state validation: card %d is face up but not pending", c.ID)
		}
	}

	if matchedCards != gs.MatchedPairs*2 {
		return fmt.Errorf("state validation: %d matched cards for %d matched pairs", matchedCards, gs.MatchedPairs)
	}
	if gs.Complete != (gs.MatchedPairs == gs.TotalPairs) {
		return fmt.Errorf("state validation: complete=%v with %d/%d pairs", gs.Complete, gs.MatchedPairs, gs.TotalPairs)
	}
	return nil
}

// FormatElapsed renders a duration as MM:SS
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
