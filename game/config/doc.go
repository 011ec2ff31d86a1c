// Package config provides configuration management for the Memory Match Game.
//
// The config package handles:
//   - Loading difficulty tiers from JSON files
//   - Tier validation, caching and listing
//   - Default tier selection
//   - Process settings from MEMORY_* environment variables
//
// Tier Format:
//
// Tiers are stored as JSON files in the configs directory. Each tier defines
// the number of pairs, the size of the face image pool, the board width, the
// mismatch display delay and the messages shown to the player.
//
// Built-in Tiers:
//   - easy: 8 pairs on a 4-column board
//   - medium: 16 pairs on an 8-column board (default)
//   - hard: 24 pairs on an 8-column board
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hard, err := manager.LoadConfig("hard")
//	tiers, err := manager.ListConfigs()
//
//	serverCfg, err := config.LoadServerConfig()
package config
