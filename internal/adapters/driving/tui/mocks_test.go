package tui

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

func (m *MockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return nil, nil
}

func (m *MockSearchService) Suggestions(context.Context, int) ([]string, error) {
	return []string{"Garden"}, nil
}

// MockSourceService implements driving.SourceService for testing.
type MockSourceService struct {
	ListFunc    func(ctx context.Context, filter string) ([]domain.SourceSummary, error)
	ContentFunc func(ctx context.Context, file string) (string, error)
}

func (m *MockSourceService) List(ctx context.Context, filter string) ([]domain.SourceSummary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockSourceService) Grouped(context.Context, string) (map[domain.SourceKind][]domain.SourceSummary, error) {
	return nil, nil
}

func (m *MockSourceService) Stats(context.Context, string) (*domain.FileStats, error) {
	return &domain.FileStats{}, nil
}

func (m *MockSourceService) Chunks(context.Context, string) ([]domain.ChunkRecord, error) {
	return nil, nil
}

func (m *MockSourceService) Content(ctx context.Context, file string) (string, error) {
	if m.ContentFunc != nil {
		return m.ContentFunc(ctx, file)
	}
	return "", nil
}

// MockAssistantService implements driving.AssistantService for testing.
type MockAssistantService struct{}

func (m *MockAssistantService) Ask(context.Context, string, domain.SearchOptions) (*domain.Answer, error) {
	return &domain.Answer{}, nil
}

func (m *MockAssistantService) Summarize(context.Context, string, domain.SearchOptions) (*domain.Summary, error) {
	return &domain.Summary{}, nil
}

func (m *MockAssistantService) Converse(
	_ context.Context, s domain.Session, q string,
) (domain.Session, *domain.Answer, error) {
	answer := &domain.Answer{Question: q, Outcome: domain.OutcomeAnswered,
		Result: domain.GenerationResult{Text: "yes"}}
	return s.WithTurn(domain.Turn{Question: q, Answer: "yes", Outcome: domain.OutcomeAnswered}), answer, nil
}

func (m *MockAssistantService) NewSession() domain.Session {
	return domain.Session{ID: "s"}
}

// MockCorpusService implements driving.CorpusService for testing.
type MockCorpusService struct {
	LoadFunc func(ctx context.Context) (*domain.Snapshot, error)
	loads    int
}

func (m *MockCorpusService) Load(ctx context.Context) (*domain.Snapshot, error) {
	m.loads++
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return testSnapshot(), nil
}

func (m *MockCorpusService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	return m.Load(ctx)
}

func (m *MockCorpusService) Current() *domain.Snapshot { return nil }

func (m *MockCorpusService) Invalidate(context.Context) error { return nil }

func (m *MockCorpusService) Watch(context.Context, func(*domain.Snapshot, error)) error { return nil }

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Corpus: &domain.Corpus{
			Records: []domain.ChunkRecord{
				{File: "a.md"}, {File: "a.md", ChunkIndex: 1}, {File: "b.md"},
			},
		},
	}
}
