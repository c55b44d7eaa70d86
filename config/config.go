package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from the environment.
type Config struct {
	APIBase     string        `env:"OPHELIA_API_BASE"     envDefault:"http://localhost:8080"`
	StoragePath string        `env:"OPHELIA_STORAGE_PATH" envDefault:"ophelia.db"`
	HTTPTimeout time.Duration `env:"OPHELIA_HTTP_TIMEOUT" envDefault:"15s"`
	MCPEndpoint string        `env:"OPHELIA_MCP_ENDPOINT" envDefault:"/mcp"`
	Debug       bool          `env:"OPHELIA_DEBUG"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("parse env: OPHELIA_HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}
