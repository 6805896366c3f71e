package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// SourceService browses the files behind the current corpus.
type SourceService interface {
	// List returns one summary per file in corpus order. A non-empty filter
	// keeps files whose path, title or any tag contains it, ignoring case.
	List(ctx context.Context, filter string) ([]domain.SourceSummary, error)

	// Grouped returns List results keyed by source kind.
	Grouped(ctx context.Context, filter string) (map[domain.SourceKind][]domain.SourceSummary, error)

	// Stats returns size statistics for a file.
	Stats(ctx context.Context, file string) (*domain.FileStats, error)

	// Chunks returns the chunk records of a file in order.
	Chunks(ctx context.Context, file string) ([]domain.ChunkRecord, error)

	// Content returns the full file text, with any header re-rendered.
	Content(ctx context.Context, file string) (string, error)
}
