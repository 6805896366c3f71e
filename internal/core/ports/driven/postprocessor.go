package driven

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// PostProcessor turns a note into chunk records, or refines records
// produced by an earlier stage.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives nil records when it is the first stage.
	Process(ctx context.Context, note *domain.Note, records []domain.ChunkRecord) ([]domain.ChunkRecord, error)
}

// PostProcessorPipeline chains PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the note through all processors in order.
	Process(ctx context.Context, note *domain.Note) ([]domain.ChunkRecord, error)
}
