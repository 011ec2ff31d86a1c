package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// DefaultConfigName is the tier used when a session names none
const DefaultConfigName = "medium"

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// Manager handles difficulty tier loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a tier by name. Names are config ids ("easy") with or
// without the .json extension.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	config, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}

	m.configs[name] = config
	return config, nil
}

func (m *Manager) readConfig(name string) (*engine.GameConfig, error) {
	configPath := filepath.Join(m.configDir, name+".json")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// ListConfigs returns information about all valid tiers, smallest deck first
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")

		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, Info(name, config))
	}

	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].PairCount != configs[j].PairCount {
			return configs[i].PairCount < configs[j].PairCount
		}
		return configs[i].ConfigID < configs[j].ConfigID
	})

	return configs, nil
}

// Info summarizes a tier for listings
func Info(configID string, config *engine.GameConfig) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:        configID + ".json",
		ConfigID:        configID,
		Name:            config.Name,
		Description:     config.Description,
		PairCount:       config.PairCount,
		CardCount:       config.PairCount * 2,
		Columns:         config.Columns,
		MismatchDelayMs: config.MismatchDelayMs,
	}
}

// GetDefault returns the default tier
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// loadDefaultConfig picks medium, then the first valid tier on disk, then the built-in medium tier
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultConfig()
		} else if config, err = m.LoadConfig(configs[0].ConfigID); err != nil {
			config = engine.DefaultConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a tier and writes it to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid config name %q", ErrInvalidConfig, name)
	}

	configPath := filepath.Join(m.configDir, name+".json")

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = config
	m.mu.Unlock()

	return nil
}

// WriteBuiltinConfigs writes the easy, medium and hard tiers into dir,
// leaving existing files alone
func WriteBuiltinConfigs(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	for name, config := range engine.BuiltinConfigs() {
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write config %s: %w", name, err)
		}
	}
	return nil
}
