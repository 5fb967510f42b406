// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// ContentBaseURL points at the content backend. Empty runs the
	// fetcher in offline mode on built-in fallbacks.
	ContentBaseURL string
	ContentTimeout time.Duration

	// VoiceServiceURL points at the voice-cloning sidecar. Empty
	// disables voice generation.
	VoiceServiceURL string
	VoiceTimeout    time.Duration

	// StepConfigPath optionally overrides the built-in step catalogs
	// with a YAML file.
	StepConfigPath string

	// SweepInterval controls how often stale daily sessions are removed.
	SweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/godlykids.db"),
		ContentBaseURL:  getEnv("CONTENT_BASE_URL", ""),
		ContentTimeout:  getEnvDuration("CONTENT_TIMEOUT", 5*time.Second),
		VoiceServiceURL: getEnv("VOICE_SERVICE_URL", ""),
		VoiceTimeout:    getEnvDuration("VOICE_TIMEOUT", 60*time.Second),
		StepConfigPath:  getEnv("STEP_CONFIG_PATH", ""),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ContentTimeout <= 0 {
		return fmt.Errorf("CONTENT_TIMEOUT must be > 0")
	}
	if c.VoiceTimeout <= 0 {
		return fmt.Errorf("VOICE_TIMEOUT must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// A bare number is read as seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
