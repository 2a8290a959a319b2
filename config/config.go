package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. Instances are loaded
// explicitly and passed to whoever needs them.
type Config struct {
	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// HTTP server configuration
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Lifecycle sweep configuration
	SchedulerEnabled  bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
	SweepIntervalSecs int  `env:"SWEEP_INTERVAL_SECONDS" envDefault:"60"`

	// Discord announcements are optional; leaving the token empty
	// disables them.
	DiscordToken     string `env:"DISCORD_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	// Environment is "development", "production", or "test"
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Environment != "test" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SweepIntervalSecs <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannelID == "" {
		return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	return &cfg, nil
}
