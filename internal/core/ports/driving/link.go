package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// LinkService resolves wikilinks against the current corpus.
type LinkService interface {
	// Extract returns the raw wikilinks in text, in order.
	Extract(text string) []string

	// Resolve maps a link to a file. Unresolved links are not errors.
	Resolve(ctx context.Context, link string) (domain.Resolution, error)

	// References lists every link written in a file, resolved, with daily
	// entry context where the file is a daily note.
	References(ctx context.Context, file string) ([]domain.LinkReference, error)

	// Backlinks lists links elsewhere in the corpus that resolve to file.
	Backlinks(ctx context.Context, file string) ([]domain.LinkReference, error)

	// DailyEntries parses the timestamped entries of a daily note.
	DailyEntries(ctx context.Context, file string) ([]domain.DailyEntry, error)
}
