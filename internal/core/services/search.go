package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService ranks the chunks of the current snapshot against a query.
type SearchService struct {
	corpus   driving.CorpusService
	embedder driven.EmbeddingService
}

// NewSearchService creates a search service. The embedder must be the one
// the corpus was indexed with.
func NewSearchService(corpus driving.CorpusService, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{
		corpus:   corpus,
		embedder: embedder,
	}
}

// Search loads the corpus and returns up to TopK results above the
// similarity floor, best first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	snap, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return s.SearchSnapshot(ctx, snap, query, topK)
}

// SearchSnapshot ranks within a given snapshot. An empty index returns no
// results without encoding the query.
func (s *SearchService) SearchSnapshot(
	ctx context.Context, snap *domain.Snapshot, query string, topK int,
) ([]domain.SearchResult, error) {
	if snap == nil || snap.Index.Empty() {
		logger.Debug("Empty corpus, skipping query encoding")
		return []domain.SearchResult{}, nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query encoding failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != snap.Index.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vec), snap.Index.Dimensions)
	}

	results := Rank(vec, snap.Index, topK)
	logger.Info("Final results: %d of top %d", len(results), topK)
	return results, nil
}

// Suggestions returns note titles and headings worth searching for,
// deduplicated and sorted.
func (s *SearchService) Suggestions(ctx context.Context, limit int) ([]string, error) {
	snap, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if limit <= 0 {
		limit = domain.DefaultSuggestionLimit
	}
	return Suggestions(snap.Corpus.Records, limit), nil
}

// Suggestions collects titles longer than three characters and heading
// texts of four to forty-nine characters from records.
func Suggestions(records []domain.ChunkRecord, limit int) []string {
	seen := make(map[string]struct{})
	add := func(s string) {
		seen[s] = struct{}{}
	}

	for i := range records {
		title := strings.NewReplacer(".md", "", ".txt", "").Replace(records[i].Title)
		if utf8.RuneCountInString(title) > 3 {
			add(title)
		}
		for _, line := range strings.Split(records[i].Content, "\n") {
			if !strings.HasPrefix(line, "#") || utf8.RuneCountInString(line) <= 4 {
				continue
			}
			heading := strings.TrimSpace(strings.Trim(line, "#"))
			if n := utf8.RuneCountInString(heading); n > 3 && n < 50 {
				add(heading)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
