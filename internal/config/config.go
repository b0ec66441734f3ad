// Package config provides runtime configuration for the TexEdit engine.
// Values are resolved with the precedence CLI flag > environment variable >
// .env file > built-in default. Environment variables use the TEXEDIT_ prefix
// (e.g. TEXEDIT_SERVER_URL, TEXEDIT_POLL_INTERVAL).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"texedit/internal/logger"
)

// Config holds every tunable of the orchestration engine. The connectivity
// timing constants deliberately live here rather than in the monitor: they
// vary per deployment.
type Config struct {
	// ServerURL is the base URL of the text-processing backend.
	ServerURL string

	// PollInterval is the health probe period.
	PollInterval time.Duration
	// ProbeTimeout bounds a single health probe. Must stay below
	// PollInterval so a hung probe cannot outlive its tick.
	ProbeTimeout time.Duration
	// RequestTimeout bounds a command execution exchange. Longer than the
	// probe timeout to accommodate slow model inference.
	RequestTimeout time.Duration
	// MaxRetries is the number of consecutive probe failures tolerated
	// before connectivity escalates to the error state.
	MaxRetries int

	// SuggestionLimit caps the number of locally ranked suggestions.
	SuggestionLimit int

	// MinBackendVersion, when non-empty, is the lowest backend semver the
	// client accepts (checked against the backend's info endpoint).
	MinBackendVersion string

	LogLevel string
	LogFile  string
}

const (
	defaultServerURL       = "http://127.0.0.1:5000"
	defaultPollInterval    = 1 * time.Second
	defaultProbeTimeout    = 5 * time.Second
	defaultRequestTimeout  = 8 * time.Second
	defaultMaxRetries      = 15
	defaultSuggestionLimit = 4
)

// Load builds a Config from the environment. A .env file in the working
// directory is honored when present; a missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env file")
	}

	v := viper.New()
	v.SetEnvPrefix("TEXEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("probe_timeout", defaultProbeTimeout)
	v.SetDefault("request_timeout", defaultRequestTimeout)
	v.SetDefault("max_retries", defaultMaxRetries)
	v.SetDefault("suggestion_limit", defaultSuggestionLimit)
	v.SetDefault("min_backend_version", "")
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")

	cfg := &Config{
		ServerURL:         v.GetString("server_url"),
		PollInterval:      v.GetDuration("poll_interval"),
		ProbeTimeout:      v.GetDuration("probe_timeout"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		MaxRetries:        v.GetInt("max_retries"),
		SuggestionLimit:   v.GetInt("suggestion_limit"),
		MinBackendVersion: v.GetString("min_backend_version"),
		LogLevel:          v.GetString("log_level"),
		LogFile:           v.GetString("log_file"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting the
// environment. Used by tests and as a fallback.
func Default() *Config {
	return &Config{
		ServerURL:       defaultServerURL,
		PollInterval:    defaultPollInterval,
		ProbeTimeout:    defaultProbeTimeout,
		RequestTimeout:  defaultRequestTimeout,
		MaxRetries:      defaultMaxRetries,
		SuggestionLimit: defaultSuggestionLimit,
	}
}

// Validate rejects configurations that would break the probe loop invariants.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.SuggestionLimit < 1 {
		return fmt.Errorf("suggestion limit must be at least 1, got %d", c.SuggestionLimit)
	}
	return nil
}
