package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults per key.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetNotesRoot points the corpus at a notes directory.
	SetNotesRoot(root string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the settings can load and search a corpus.
	// A missing generator is not an error.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured encoder.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured generator.
	ValidateLLMConfig(ctx context.Context) error
}
