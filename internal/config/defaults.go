package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             "claude-sonnet-4-5-20250929",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",

		ReasoningTemperature: 0.3,
		DialogueTemperature:  0.7,

		LLMTimeoutSeconds:       30,
		RetrievalTimeoutSeconds: 10,
		RequestsPerMinute:       60,

		Protocol: ProtocolConfig{
			MaxClarifyQuestions: 3,
			MaxExploreCycles:    2,
			LookbackTurns:       8,
		},

		RetrieveK:  3,
		CorpusDir:  "corpus",
		DataDir:    ".guideflow",
		SessionTTL: 24,

		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8765,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}
