package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// defaultModels maps each provider to a reasonable default dialogue model.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o",
	ProviderOllama:    "llama3",
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .guideflow.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to guideflow! Let's configure the dialogue engine.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Dialogue model",
		Default: defaultModels[cfg.Provider],
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Corpus directory.
	corpusPrompt := promptui.Prompt{
		Label:   "Corpus directory (labeled exchange YAML files)",
		Default: cfg.CorpusDir,
	}
	if cfg.CorpusDir, err = corpusPrompt.Run(); err != nil {
		return nil, fmt.Errorf("corpus dir: %w", err)
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("must be a valid port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(".guideflow.yml"); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Configuration written to .guideflow.yml")
	fmt.Println("Next: put labeled exchanges under the corpus dir and run `guideflow index`.")
	return cfg, nil
}
