package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/karimzakaria/guideflow/internal/config"
	"github.com/karimzakaria/guideflow/internal/db"
	"github.com/karimzakaria/guideflow/internal/decision"
	"github.com/karimzakaria/guideflow/internal/embeddings"
	"github.com/karimzakaria/guideflow/internal/lifecycle"
	"github.com/karimzakaria/guideflow/internal/llm"
	"github.com/karimzakaria/guideflow/internal/retrieval"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/synthesis"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates a rate-limited LLM provider based on
// config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, ""), nil
	default:
		// Anthropic has no embeddings API; OpenAI covers both cases.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings when embedding_provider is %s", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	}
}

// indexDir is where the persisted chromem export lives under the data dir.
func indexDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "index")
}

// openStore creates the vector store and loads the persisted index. A
// missing index is a warning, not an error: retrieval degrades to empty.
func openStore(cfg *config.Config) (vectordb.Store, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	if err := store.Load(context.Background(), indexDir(cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load exchange index from %s: %v\n", indexDir(cfg), err)
		fmt.Fprintf(os.Stderr, "Replies will be ungrounded. Run `guideflow index` first.\n")
	}
	return store, nil
}

// buildManager assembles the full turn pipeline from config. store may be
// nil for a fully offline pipeline.
func buildManager(cfg *config.Config, database *db.DB, store vectordb.Store) (*lifecycle.Manager, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	limits := decision.Limits{
		MaxClarifyQuestions: cfg.Protocol.MaxClarifyQuestions,
		MaxExploreCycles:    cfg.Protocol.MaxExploreCycles,
		LookbackTurns:       cfg.Protocol.LookbackTurns,
	}
	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	sessions := session.NewSQLStore(database)
	engine := decision.NewEngine(provider, cfg.Model, cfg.ReasoningTemperature, llmTimeout, limits)
	retriever := retrieval.New(store, cfg.RetrieveK, time.Duration(cfg.RetrievalTimeoutSeconds)*time.Second)
	synth := synthesis.New(provider, cfg.Model, cfg.DialogueTemperature, llmTimeout, limits)
	ttl := time.Duration(cfg.SessionTTL) * time.Hour

	return lifecycle.New(sessions, engine, retriever, synth, sessions, ttl), nil
}

// openDatabase opens the session database under the data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, "guideflow.db"))
}
