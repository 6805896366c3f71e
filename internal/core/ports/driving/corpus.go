package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// CorpusService loads the notes root into an immutable snapshot.
type CorpusService interface {
	// Load returns the current snapshot, loading it on first use. Unchanged
	// roots are served from the memo cache without re-reading or re-encoding.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Reload clears every cache and builds a fresh snapshot.
	Reload(ctx context.Context) (*domain.Snapshot, error)

	// Current returns the last loaded snapshot, or nil.
	Current() *domain.Snapshot

	// Invalidate drops all memoised corpora, indexes and encoder output.
	Invalidate(ctx context.Context) error

	// Watch reloads whenever the notes root changes, calling onLoad after
	// each attempt, until ctx is cancelled.
	Watch(ctx context.Context, onLoad func(*domain.Snapshot, error)) error
}
