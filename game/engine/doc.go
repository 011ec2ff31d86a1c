// Package engine provides the core game logic for the Memory Match Game.
//
// The engine package implements the game mechanics including:
//   - Deck generation: drawing distinct face keys from a pool and shuffling pairs
//   - The reveal cycle: at most two face-up unresolved cards at a time
//   - Match and mismatch resolution, move and pair counting
//   - Completion detection and elapsed-time tracking
//   - Configuration loading and validation for difficulty tiers
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState represents one dealt game, while
// GameConfig describes a difficulty tier loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/easy.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	switch gameEngine.RevealCard(3) {
//	case engine.OutcomeMismatch:
//		// keep both cards visible, then
//		gameEngine.ResolveMismatchFor(gameEngine.GameID())
//	}
//
// Game Rules:
//
// A player reveals two cards per turn. Equal face keys stay face up as a
// matched pair; unequal ones stay visible until ResolveMismatch turns them
// face down again. Every second reveal counts as one move. The game is
// complete when every pair is matched, after which reveals are ignored.
//
// The engine holds no timers and performs no I/O. Invalid reveals are
// no-ops rather than errors, and randomness comes from an injectable
// RandomSource so deals can be reproduced in tests.
package engine
