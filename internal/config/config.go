package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from FABLE_* environment variables.
type Config struct {
	Port string `env:"FABLE_PORT" envDefault:"8080"`

	GCPProject  string `env:"FABLE_GCP_PROJECT"`
	GCPLocation string `env:"FABLE_GCP_LOCATION" envDefault:"us-central1"`

	StoryModel   string `env:"FABLE_MODEL_NAME" envDefault:"gemini-2.5-flash"`
	SummaryModel string `env:"FABLE_SUMMARY_MODEL" envDefault:"gemini-2.5-flash-lite"`

	// UseMockLLM swaps the Gemini client for the scripted model (dev).
	UseMockLLM bool `env:"FABLE_USE_MOCK_LLM"`

	// RecentLimit is the exchange-buffer threshold that triggers folding
	// the buffer into the rolling summary.
	RecentLimit int `env:"FABLE_RECENT_LIMIT" envDefault:"3"`
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if !cfg.UseMockLLM && cfg.GCPProject == "" {
		return nil, fmt.Errorf("FABLE_GCP_PROJECT must be set unless FABLE_USE_MOCK_LLM is enabled")
	}
	if cfg.RecentLimit < 1 {
		return nil, fmt.Errorf("FABLE_RECENT_LIMIT must be at least 1")
	}

	return cfg, nil
}
