package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ValidateGameConfig validates a difficulty tier for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate deck size
	if config.PairCount < MinPairs || config.PairCount > MaxPairs {
		return fmt.Errorf("config validation: pair_count must be between %d and %d, got %d", MinPairs, MaxPairs, config.PairCount)
	}
	if config.FaceKeyPoolSize > MaxFaceKeyPool {
		return fmt.Errorf("config validation: face_key_pool_size must be at most %d, got %d", MaxFaceKeyPool, config.FaceKeyPoolSize)
	}
	if config.FaceKeyPoolSize < config.PairCount {
		return fmt.Errorf("config validation: face_key_pool_size (%d) must be at least pair_count (%d)",
			config.FaceKeyPoolSize, config.PairCount)
	}

	// Validate layout
	if config.Columns < 1 || config.Columns > config.PairCount*2 {
		return fmt.Errorf("config validation: columns must be between 1 and %d, got %d", config.PairCount*2, config.Columns)
	}

	// Validate timing
	if config.MismatchDelayMs < 0 || config.MismatchDelayMs > MaxMismatchDelayMs {
		return fmt.Errorf("config validation: mismatch_delay_ms must be between 0 and %d, got %d", MaxMismatchDelayMs, config.MismatchDelayMs)
	}

	// Validate asset pattern
	if config.FaceAssetPattern != "" {
		if n, ok := countIntVerbs(config.FaceAssetPattern); !ok || n != 1 {
			return fmt.Errorf("config validation: face_asset_pattern must contain exactly one integer verb such as %%02d, got %q", config.FaceAssetPattern)
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if n, ok := countIntVerbs(config.Messages.Victory); !ok || n > 1 {
		return fmt.Errorf("config validation: messages.victory may only contain a single %%d for the move count and %s for the time", ElapsedPlaceholder)
	}

	return nil
}

// countIntVerbs counts integer verbs (%d, %02d) in a format string.
// ok is false when any other verb appears; "%%" is a literal.
func countIntVerbs(format string) (n int, ok bool) {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		for i < len(format) && strings.IndexByte("+-# 0123456789", format[i]) >= 0 {
			i++
		}
		switch {
		case i >= len(format):
			return n, false
		case format[i] == '%':
		case format[i] == 'd':
			n++
		default:
			return n, false
		}
	}
	return n, true
}

// LoadGameConfig loads and validates a difficulty tier from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filename, err)
	}

	return &config, nil
}

// DefaultConfig returns the medium tier used when no config directory is available
func DefaultConfig() *GameConfig {
	return newTier("Medium", "16 pairs on an 8-column board", 16, 8)
}

// BuiltinConfigs returns the easy, medium and hard tiers keyed by config id
func BuiltinConfigs() map[string]*GameConfig {
	return map[string]*GameConfig{
		"easy":   newTier("Easy", "8 pairs on a 4-column board", 8, 4),
		"medium": DefaultConfig(),
		"hard":   newTier("Hard", "24 pairs on an 8-column board", 24, 8),
	}
}

func newTier(name, description string, pairs, columns int) *GameConfig {
	config := &GameConfig{
		Name:             name,
		Description:      description,
		PairCount:        pairs,
		FaceKeyPoolSize:  DefaultFaceKeyPool,
		Columns:          columns,
		MismatchDelayMs:  DefaultMismatchDelay,
		FaceAssetPattern: DefaultFaceAssetPath,
	}
	config.Messages.Welcome = "Find all the matching pairs!"
	config.Messages.Match = "It's a match!"
	config.Messages.Mismatch = "Not a match, try again."
	config.Messages.Victory = "Awesome job! You won in " + ElapsedPlaceholder + " with %d moves!"
	return config
}
