// ABOUTME: Runtime configuration loaded from SURVEYSCOPE_* environment variables.
// ABOUTME: Enforces the one hard requirement: an OpenAI API key must be present.
package main

import (
	"errors"
	"os"
)

// ErrMissingAPIKey is returned when neither SURVEYSCOPE_OPENAI_API_KEY nor
// OPENAI_API_KEY is set.
var ErrMissingAPIKey = errors.New(
	"no API key found; set SURVEYSCOPE_OPENAI_API_KEY or OPENAI_API_KEY",
)

// appConfig holds configuration loaded from environment variables.
type appConfig struct {
	APIKey       string // SURVEYSCOPE_OPENAI_API_KEY, falls back to OPENAI_API_KEY
	PlannerModel string // SURVEYSCOPE_PLANNER_MODEL (default: o3-mini)
	SynthModel   string // SURVEYSCOPE_SYNTH_MODEL (default: planner model)
	QualModel    string // SURVEYSCOPE_QUAL_MODEL (default: planner model)
	ExecModel    string // SURVEYSCOPE_EXEC_MODEL (default: gpt-4o)
	Bind         string // SURVEYSCOPE_BIND (default: 127.0.0.1:8386)
}

// configFromEnv loads configuration with sensible defaults.
func configFromEnv() (*appConfig, error) {
	apiKey := os.Getenv("SURVEYSCOPE_OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	plannerModel := envOrDefault("SURVEYSCOPE_PLANNER_MODEL", "o3-mini")

	return &appConfig{
		APIKey:       apiKey,
		PlannerModel: plannerModel,
		SynthModel:   envOrDefault("SURVEYSCOPE_SYNTH_MODEL", plannerModel),
		QualModel:    envOrDefault("SURVEYSCOPE_QUAL_MODEL", plannerModel),
		ExecModel:    envOrDefault("SURVEYSCOPE_EXEC_MODEL", "gpt-4o"),
		Bind:         envOrDefault("SURVEYSCOPE_BIND", "127.0.0.1:8386"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
