// Package extract asks a language model for the entities and relationships
// mentioned in a document.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/llm"
	"archivum/internal/logging"
)

// ErrExtractionFailed wraps every upstream model failure.
var ErrExtractionFailed = errors.New("extraction failed")

const rawLogLimit = 2048

// CredentialSource resolves the model API key at call time.
type CredentialSource interface {
	APIKeyValue() (string, bool)
}

// StaticCredential is a CredentialSource holding a fixed key.
type StaticCredential string

func (s StaticCredential) APIKeyValue() (string, bool) {
	key := strings.TrimSpace(string(s))
	return key, key != ""
}

type Options struct {
	// Vocabulary lists the recommended relation types quoted in the prompt.
	Vocabulary  []string
	MaxTokens   int
	Temperature float64
	JSONMode    bool
	// MaxInputBytes rejects larger documents with ErrInvalidInput. Zero
	// means no limit.
	MaxInputBytes int
}

type Client struct {
	creds   CredentialSource
	factory llm.Factory
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

func NewClient(creds CredentialSource, factory llm.Factory, opts Options, logger *zap.Logger) *Client {
	return &Client{
		creds:   creds,
		factory: factory,
		opts:    opts,
		logger:  logger.Named("extract"),
		now:     time.Now,
	}
}

// IsAvailable reports whether a credential is present. It does not contact
// the provider.
func (c *Client) IsAvailable() bool {
	if c == nil || c.creds == nil || c.factory == nil {
		return false
	}
	_, ok := c.creds.APIKeyValue()
	return ok
}

// Extract sends text to the model and returns the candidates it proposed.
// A reply that cannot be parsed is not an error: the result is empty and
// Metadata.Malformed is set.
func (c *Client) Extract(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty: %w", apperrors.ErrInvalidInput)
	}
	if c.opts.MaxInputBytes > 0 && len(text) > c.opts.MaxInputBytes {
		return nil, fmt.Errorf("text is %d bytes, limit is %d: %w", len(text), c.opts.MaxInputBytes, apperrors.ErrInvalidInput)
	}

	if c.creds == nil || c.factory == nil {
		return nil, apperrors.ErrNotConfigured
	}
	apiKey, ok := c.creds.APIKeyValue()
	if !ok {
		return nil, apperrors.ErrNotConfigured
	}

	completer, err := c.factory(apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: creating model client: %w", ErrExtractionFailed, err)
	}

	resp, err := completer.Complete(ctx, llm.Request{
		System:      systemPrompt(c.opts.Vocabulary),
		Prompt:      userPrompt(text),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		JSONMode:    c.opts.JSONMode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, llm.ClassifyError(err))
	}

	entities, relationships, parsed := parseResponse(resp.Content, c.logger)
	if !parsed {
		c.logger.Warn("Model response held no usable JSON, returning empty result",
			zap.String("model", resp.Model),
			zap.String("raw_response", logging.Truncate(resp.Content, rawLogLimit)))
	}

	model := resp.Model
	if model == "" {
		model = completer.Model()
	}

	c.logger.Info("Extraction completed",
		zap.String("model", model),
		zap.Int("entities", len(entities)),
		zap.Int("relationships", len(relationships)),
		zap.Int("total_tokens", resp.TotalTokens))

	return &Result{
		Entities:      entities,
		Relationships: relationships,
		Metadata: Metadata{
			Model:            model,
			PromptVersion:    PromptVersion,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			TotalTokens:      resp.TotalTokens,
			ExtractedAt:      c.now().UTC(),
			Malformed:        !parsed,
		},
	}, nil
}
