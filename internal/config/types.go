package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level guideflow configuration, corresponding to
// .guideflow.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// Temperatures for the two distinct generative uses: low-variance
	// decision reasoning and higher-variance dialogue synthesis.
	ReasoningTemperature float64 `yaml:"reasoning_temperature" koanf:"reasoning_temperature"`
	DialogueTemperature  float64 `yaml:"dialogue_temperature" koanf:"dialogue_temperature"`

	LLMTimeoutSeconds       int `yaml:"llm_timeout_seconds" koanf:"llm_timeout_seconds"`
	RetrievalTimeoutSeconds int `yaml:"retrieval_timeout_seconds" koanf:"retrieval_timeout_seconds"`
	RequestsPerMinute       int `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	Protocol ProtocolConfig `yaml:"protocol" koanf:"protocol"`

	RetrieveK  int    `yaml:"retrieve_k" koanf:"retrieve_k"`
	CorpusDir  string `yaml:"corpus_dir" koanf:"corpus_dir"`
	DataDir    string `yaml:"data_dir" koanf:"data_dir"`
	SessionTTL int    `yaml:"session_ttl_hours" koanf:"session_ttl_hours"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ProtocolConfig holds the loop-prevention knobs. The two ceilings are
// configured independently; protocol revisions disagree on their values.
type ProtocolConfig struct {
	MaxClarifyQuestions int `yaml:"max_clarify_questions" koanf:"max_clarify_questions"`
	MaxExploreCycles    int `yaml:"max_explore_cycles" koanf:"max_explore_cycles"`
	LookbackTurns       int `yaml:"lookback_turns" koanf:"lookback_turns"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host" koanf:"host"`
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}
