package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// SearchService ranks chunks against a query.
type SearchService interface {
	// Search returns up to TopK results above the similarity floor, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Suggestions returns title and heading strings worth searching for.
	Suggestions(ctx context.Context, limit int) ([]string, error)
}
