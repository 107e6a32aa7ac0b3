package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider %q, got %q", ProviderAnthropic, cfg.Provider)
	}
	if cfg.ReasoningTemperature != 0.3 {
		t.Errorf("expected default reasoning_temperature 0.3, got %f", cfg.ReasoningTemperature)
	}
	if cfg.DialogueTemperature != 0.7 {
		t.Errorf("expected default dialogue_temperature 0.7, got %f", cfg.DialogueTemperature)
	}
	if cfg.Protocol.MaxClarifyQuestions != 3 {
		t.Errorf("expected default max_clarify_questions 3, got %d", cfg.Protocol.MaxClarifyQuestions)
	}
	if cfg.Protocol.MaxExploreCycles != 2 {
		t.Errorf("expected default max_explore_cycles 2, got %d", cfg.Protocol.MaxExploreCycles)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.guideflow.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Protocol.MaxClarifyQuestions = 5
	original.RetrieveK = 4
	original.Server.Port = 9000

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Protocol.MaxClarifyQuestions != 5 {
		t.Errorf("max_clarify_questions: got %d, want 5", loaded.Protocol.MaxClarifyQuestions)
	}
	if loaded.RetrieveK != 4 {
		t.Errorf("retrieve_k: got %d, want 4", loaded.RetrieveK)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected defaults, got provider %q", cfg.Provider)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GUIDEFLOW_PROVIDER", "ollama")
	t.Setenv("GUIDEFLOW_MODEL", "llama3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider: got %q, want ollama", cfg.Provider)
	}
	if cfg.Model != "llama3" {
		t.Errorf("model: got %q, want llama3", cfg.Model)
	}
}

func TestNestedEnvOverride(t *testing.T) {
	t.Setenv("GUIDEFLOW_PROTOCOL__MAX_CLARIFY_QUESTIONS", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Protocol.MaxClarifyQuestions != 4 {
		t.Errorf("max_clarify_questions: got %d, want 4", cfg.Protocol.MaxClarifyQuestions)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "grok" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"negative temperature", func(c *Config) { c.DialogueTemperature = -1 }},
		{"zero clarify ceiling", func(c *Config) { c.Protocol.MaxClarifyQuestions = 0 }},
		{"zero explore ceiling", func(c *Config) { c.Protocol.MaxExploreCycles = 0 }},
		{"zero lookback", func(c *Config) { c.Protocol.LookbackTurns = 0 }},
		{"zero retrieve k", func(c *Config) { c.RetrieveK = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSavedFileIsReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("saved config is empty")
	}
}
