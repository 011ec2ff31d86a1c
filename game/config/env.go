package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// ServerConfig holds process settings read from MEMORY_* environment variables.
// Command-line flags override these values.
type ServerConfig struct {
	Host            string        `env:"MEMORY_HOST" envDefault:"localhost"`
	Port            int           `env:"MEMORY_PORT" envDefault:"8080"`
	ConfigDir       string        `env:"MEMORY_CONFIG_DIR" envDefault:"configs"`
	StaticDir       string        `env:"MEMORY_STATIC_DIR" envDefault:"static"`
	Store           string        `env:"MEMORY_STORE" envDefault:"file"`
	SessionsDir     string        `env:"MEMORY_SESSIONS_DIR" envDefault:"sessions"`
	SQLitePath      string        `env:"MEMORY_SQLITE_PATH" envDefault:"memorymatch.db"`
	RedisAddr       string        `env:"MEMORY_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"MEMORY_REDIS_PASSWORD"`
	RedisDB         int           `env:"MEMORY_REDIS_DB" envDefault:"0"`
	NATSURL         string        `env:"MEMORY_NATS_URL"`
	SessionTTL      time.Duration `env:"MEMORY_SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"MEMORY_CLEANUP_INTERVAL" envDefault:"1h"`
	Debug           bool          `env:"MEMORY_DEBUG" envDefault:"false"`
	NgrokEnabled    bool          `env:"NGROK_ENABLED" envDefault:"false"`
	NgrokAuthToken  string        `env:"NGROK_AUTHTOKEN"`
	NgrokDomain     string        `env:"NGROK_DOMAIN"`
}

// LoadServerConfig parses the environment into a ServerConfig
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the environment parser cannot
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown session store %q (want file, sqlite, redis or memory)", c.Store)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
