package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ChatConfig represents the configuration for the reasoning model.
type ChatConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
}

// NewChatModel builds the shared reasoning/classification model. Agents
// and the router differ only in prompts and call options, so one model
// instance serves both.
func NewChatModel(config ChatConfig) (llms.Model, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return model, nil
}
