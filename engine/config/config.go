package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the viewer settings read from the environment.
type Config struct {
	// AssetDir is the base directory manifest paths are resolved against.
	AssetDir string `env:"SHOWROOM_ASSET_DIR" envDefault:"assets"`
	// Manifest is the TOML or YAML file listing assets and scene settings.
	Manifest string `env:"SHOWROOM_MANIFEST" envDefault:"assets/manifest.toml"`
	LogLevel string `env:"SHOWROOM_LOG_LEVEL" envDefault:"info"`
	// Workers bounds how many assets load at the same time.
	Workers int `env:"SHOWROOM_LOAD_WORKERS" envDefault:"4"`
	// LoadTimeout cancels loads still pending after this long. Zero waits forever.
	LoadTimeout time.Duration `env:"SHOWROOM_LOAD_TIMEOUT" envDefault:"0s"`
	// Watch reloads the scene when files under AssetDir change.
	Watch    bool          `env:"SHOWROOM_WATCH" envDefault:"false"`
	TickRate time.Duration `env:"SHOWROOM_TICK_RATE" envDefault:"16ms"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("SHOWROOM_LOAD_WORKERS must be positive, got %d", c.Workers)
	}
	if c.LoadTimeout < 0 {
		return fmt.Errorf("SHOWROOM_LOAD_TIMEOUT must not be negative, got %s", c.LoadTimeout)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("SHOWROOM_TICK_RATE must be positive, got %s", c.TickRate)
	}
	return nil
}
