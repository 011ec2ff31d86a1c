package main

import (
	"sort"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// MemoryStrategy remembers every face it has seen and never flips a known
// card twice without a reason. It only reads faces of cards that are face up.
type MemoryStrategy struct {
	faces map[int]int // unmatched card id -> face key
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{faces: make(map[int]int)}
}

// Reset forgets everything, for a fresh deal
func (s *MemoryStrategy) Reset() {
	s.faces = make(map[int]int)
}

// Observe records the faces of face-up cards and forgets matched ones
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	for _, card := range state.Cards {
		switch {
		case card.Matched:
			delete(s.faces, card.ID)
		case card.Revealed:
			s.faces[card.ID] = card.FaceKey
		}
	}
}

// Seen reports how many unmatched faces are remembered
func (s *MemoryStrategy) Seen() int {
	return len(s.faces)
}

// NextReveal picks the next card to reveal, or -1 when nothing is left
func (s *MemoryStrategy) NextReveal(state *engine.GameState) int {
	if len(state.PendingReveal) == 1 {
		first := state.PendingReveal[0]
		if twin, ok := s.twinOf(first, s.faces[first]); ok {
			return twin
		}
		return s.firstUnseen(state)
	}

	if a, ok := s.knownPair(); ok {
		return a
	}
	return s.firstUnseen(state)
}

func (s *MemoryStrategy) twinOf(id, face int) (int, bool) {
	for other, f := range s.faces {
		if other != id && f == face {
			return other, true
		}
	}
	return 0, false
}

// knownPair returns the lowest id of a remembered pair
func (s *MemoryStrategy) knownPair() (int, bool) {
	ids := make([]int, 0, len(s.faces))
	for id := range s.faces {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if _, ok := s.twinOf(id, s.faces[id]); ok {
			return id, true
		}
	}
	return 0, false
}

func (s *MemoryStrategy) firstUnseen(state *engine.GameState) int {
	for _, id := range engine.FaceDownCards(state) {
		if _, known := s.faces[id]; !known {
			return id
		}
	}
	return -1
}
