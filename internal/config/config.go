// Package config loads server configuration from the environment.
// CLI flags override these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"SPLITSIG_PORT" envDefault:"8080"`
	DBPath    string `env:"SPLITSIG_DB_PATH" envDefault:"./splitsig.db"`
	TokenFile string `env:"SPLITSIG_TOKEN_FILE"` // empty = alongside the database
	LogLevel  string `env:"SPLITSIG_LOG_LEVEL" envDefault:"info"`
}

// Load parses the SPLITSIG_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when the environment is
// malformed or absent.
func Default() Config {
	return Config{
		Port:     8080,
		DBPath:   "./splitsig.db",
		LogLevel: "info",
	}
}
