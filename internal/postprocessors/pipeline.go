// Package postprocessors turns normalised notes into chunk records.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the note through all processors in order.
// The first processor receives nil records and should create them.
// Subsequent processors receive and may modify the records.
func (p *Pipeline) Process(ctx context.Context, note *domain.Note) ([]domain.ChunkRecord, error) {
	if note == nil {
		return nil, fmt.Errorf("note is nil")
	}

	var records []domain.ChunkRecord

	for _, processor := range p.processors {
		var err error
		records, err = processor.Process(ctx, note, records)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return records, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
