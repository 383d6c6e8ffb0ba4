// Package config loads runtime settings from the environment once at
// process start. Core packages never look up the environment
// themselves; they receive a Settings value.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the full configuration surface of the process.
type Settings struct {
	// OpenAI-compatible chat-completions endpoint.
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIAPIBase   string `mapstructure:"openai_api_base"`
	OpenAIChatModel string `mapstructure:"openai_chat_model"`

	// Bluesky public AppView base.
	BlueskyAppViewBase string `mapstructure:"bluesky_appview_base"`
}

// Load reads settings from the environment. A local .env file is
// honoured when present. Required:
//
//   - OPENAI_API_KEY
//
// Optional overrides:
//
//   - OPENAI_API_BASE (default https://api.openai.com/v1)
//   - OPENAI_CHAT_MODEL (default gpt-4.1-mini)
//   - BLUESKY_APPVIEW_BASE (default https://api.bsky.app)
func Load() (*Settings, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("openai_api_base", "https://api.openai.com/v1")
	v.SetDefault("openai_chat_model", "gpt-4.1-mini")
	v.SetDefault("bluesky_appview_base", "https://api.bsky.app")

	for _, key := range []string{
		"openai_api_key",
		"openai_api_base",
		"openai_chat_model",
		"bluesky_appview_base",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the required fields. A missing API key is fatal
// before any run begins.
func (s *Settings) Validate() error {
	if s.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set; set it to an OpenAI-compatible API key")
	}
	return nil
}
