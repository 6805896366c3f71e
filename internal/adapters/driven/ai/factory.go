// Package ai constructs embedding and LLM adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/margin/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/margin/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/margin/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/margin/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/margin/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/margin/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/logger"
	"github.com/custodia-labs/margin/internal/memo"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when no generator is reachable.
	Warnings         []string          // Non-fatal issues that caused fallback.
	FellBack         bool              // True if the offline hashing encoder replaced the configured one.
}

// Factory builds adapters and memoises them by the settings that shape
// them, so repeated loads with unchanged settings reuse one client.
type Factory struct {
	embedders *memo.Cache[domain.EmbeddingSettings, driven.EmbeddingService]
	llms      *memo.Cache[domain.LLMSettings, driven.LLMService]

	mu      sync.Mutex
	created []interface{ Close() error }
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		embedders: memo.New[domain.EmbeddingSettings, driven.EmbeddingService](),
		llms:      memo.New[domain.LLMSettings, driven.LLMService](),
	}
}

// Embedding returns the encoder for settings, constructing it on first use.
// Unconfigured settings yield nil without error.
func (f *Factory) Embedding(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	return f.embedders.Get(ctx, *settings, func(context.Context) (driven.EmbeddingService, error) {
		svc, err := CreateEmbeddingService(settings)
		if err != nil {
			return nil, err
		}
		f.track(svc)
		logger.Debug("Created %s encoder %s", settings.Provider, svc.ModelName())
		return svc, nil
	})
}

// LLM returns the generator for settings, constructing it on first use.
// Unconfigured settings yield nil without error.
func (f *Factory) LLM(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	return f.llms.Get(ctx, *settings, func(context.Context) (driven.LLMService, error) {
		svc, err := CreateLLMService(settings)
		if err != nil {
			return nil, err
		}
		f.track(svc)
		logger.Debug("Created %s generator %s", settings.Provider, svc.ModelName())
		return svc, nil
	})
}

// Init builds both services and checks they answer. An unreachable encoder
// is replaced by the offline hashing encoder; an unreachable generator is
// dropped. Both cases add a warning instead of failing.
func (f *Factory) Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, err := f.Embedding(ctx, &settings.Embedding)
	if err == nil && embedder == nil {
		err = fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if err == nil {
		err = ping(ctx, embedder)
	}
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedding: %v; using the offline hashing encoder", err))
		result.FellBack = true
		embedder, _ = f.Embedding(ctx, &domain.EmbeddingSettings{
			Provider: domain.AIProviderHashing,
			Model:    domain.DefaultEmbeddingModels()[domain.AIProviderHashing],
		})
	}
	result.EmbeddingService = embedder

	llm, err := f.LLM(ctx, &settings.LLM)
	if err == nil && llm != nil {
		err = ping(ctx, llm)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm: %v; answers are disabled", err))
		llm = nil
	}
	result.LLMService = llm

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// Invalidate forgets every memoised adapter. Adapters already handed out
// stay usable until Close.
func (f *Factory) Invalidate() {
	f.embedders.Invalidate()
	f.llms.Invalidate()
}

// Close releases every adapter the factory has built.
func (f *Factory) Close() error {
	f.mu.Lock()
	created := f.created
	f.created = nil
	f.mu.Unlock()

	f.Invalidate()

	var errs []error
	for _, c := range created {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Factory) track(c interface{ Close() error }) {
	f.mu.Lock()
	f.created = append(f.created, c)
	f.mu.Unlock()
}

func ping(ctx context.Context, svc interface{ Ping(context.Context) error }) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	return nil
}

// ValidateEmbeddingConfig builds a throwaway encoder and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return fmt.Errorf("%w: embedding provider is not configured", domain.ErrEmbeddingUnavailable)
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(ctx, svc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig builds a throwaway generator and pings it. An
// unconfigured generator is not an error.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(ctx, svc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// CreateEmbeddingService creates the encoder named by settings without
// contacting it.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err := ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        domain.EmbeddingDimensions()[settings.Model],
			Concurrency:       settings.Concurrency,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        domain.EmbeddingDimensions()[settings.Model],
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(domain.EmbeddingDimensions()[settings.Model]), nil

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama, openai or hashing",
			domain.ErrInvalidProvider)

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates the generator named by settings without
// contacting it.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderHashing:
		return nil, fmt.Errorf("%w: hashing is an embedding-only provider", domain.ErrInvalidProvider)

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
