// Package llm talks to hosted language models. It hides the provider SDKs
// behind Completer and classifies their failures into Error.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Request is a single-turn completion: one system prompt, one user message.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSONMode asks providers that support it to constrain output to a
	// JSON object.
	JSONMode bool
}

// Response is the text of the first completion plus token usage.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completer is implemented by every provider client and by MockCompleter.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Config selects and tunes a provider. The API key is supplied separately
// so it can be resolved at call time.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Factory builds a Completer for an API key.
type Factory func(apiKey string) (Completer, error)

// NewFactory returns a Factory for cfg.Provider.
func NewFactory(cfg Config, logger *zap.Logger) (Factory, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		return func(apiKey string) (Completer, error) {
			return NewAnthropicClient(cfg, apiKey, logger), nil
		}, nil
	case ProviderOpenAI:
		return func(apiKey string) (Completer, error) {
			return NewOpenAIClient(cfg, apiKey, logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.Provider)
	}
}
