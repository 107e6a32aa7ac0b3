// Package config loads the guideflow configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (GUIDEFLOW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: GUIDEFLOW_PROVIDER -> provider,
	// GUIDEFLOW_SERVER__PORT -> server.port. Double underscore nests;
	// single underscore stays part of the key name.
	if err := k.Load(env.Provider("GUIDEFLOW_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "GUIDEFLOW_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderOllama:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}

	if c.ReasoningTemperature < 0 || c.ReasoningTemperature > 2 {
		return fmt.Errorf("reasoning_temperature must be between 0 and 2")
	}
	if c.DialogueTemperature < 0 || c.DialogueTemperature > 2 {
		return fmt.Errorf("dialogue_temperature must be between 0 and 2")
	}

	if c.Protocol.MaxClarifyQuestions < 1 {
		return fmt.Errorf("protocol.max_clarify_questions must be at least 1")
	}
	if c.Protocol.MaxExploreCycles < 1 {
		return fmt.Errorf("protocol.max_explore_cycles must be at least 1")
	}
	if c.Protocol.LookbackTurns < 1 {
		return fmt.Errorf("protocol.lookback_turns must be at least 1")
	}

	if c.RetrieveK < 1 {
		return fmt.Errorf("retrieve_k must be at least 1")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.SessionTTL < 1 {
		return fmt.Errorf("session_ttl_hours must be at least 1")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port number")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for the
// API key of the given provider. Ollama needs no key.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
