package driven

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// AIConfigValidator checks that configured AI providers answer before a
// corpus load commits to them.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured encoder.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured generator. An unconfigured generator
	// is not an error.
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}
