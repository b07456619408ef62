// Package ai builds and validates the embedding and language model services
// selected in settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/eventrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/eventrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/eventrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/eventrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/eventrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/eventrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/eventrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to startup errors.
const settingsHint = "Run 'eventrag settings show' to check the configuration"

// Services holds the AI clients built at startup.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all clients.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Init builds both clients from settings, validates them with a ping, and
// wraps them with rate limiting and the query embedding cache.
// Pinging is skipped when validate is false.
func Init(ctx context.Context, settings *domain.AppSettings, validate bool) (*Services, error) {
	embed, err := CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	llm, err := CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		embed.Close()
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}

	if validate {
		if err := ping(ctx, embed.Ping); err != nil {
			embed.Close()
			llm.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
		}
		if err := ping(ctx, llm.Ping); err != nil {
			embed.Close()
			llm.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
		}
	}

	embed = WithEmbeddingRateLimit(embed, settings.Embedding.RequestsPerSecond)
	embed = cache.Wrap(embed, settings.Cache.Size, settings.Cache.TTL)
	llm = WithLLMRateLimit(llm, settings.LLM.RequestsPerSecond)

	logger.Debug("AI: embedding %s/%s, llm %s/%s",
		settings.Embedding.Provider, embed.ModelName(), settings.LLM.Provider, llm.ModelName())

	return &Services{Embedding: embed, LLM: llm}, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

// ValidateLLMConfig creates a language model service and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, errors.New("no embedding settings")
	}
	if !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama, openai or gemini", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s embedding provider requires an API key", settings.Provider)
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the language model service selected by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, errors.New("no LLM settings")
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s LLM provider requires an API key", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
