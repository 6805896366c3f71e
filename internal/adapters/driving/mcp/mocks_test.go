package mcp

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.opts = opts
	return m.results, m.err
}

func (m *mockSearchService) Suggestions(_ context.Context, _ int) ([]string, error) {
	return nil, m.err
}

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	answer  *domain.Answer
	summary *domain.Summary
	err     error
}

func (m *mockAssistantService) Ask(
	_ context.Context, _ string, _ domain.SearchOptions,
) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAssistantService) Summarize(
	_ context.Context, _ string, _ domain.SearchOptions,
) (*domain.Summary, error) {
	return m.summary, m.err
}

func (m *mockAssistantService) Converse(
	_ context.Context, session domain.Session, _ string,
) (domain.Session, *domain.Answer, error) {
	return session, m.answer, m.err
}

func (m *mockAssistantService) NewSession() domain.Session {
	return domain.Session{ID: "session-1"}
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources []domain.SourceSummary
	content string
	file    string
	err     error
}

func (m *mockSourceService) List(_ context.Context, _ string) ([]domain.SourceSummary, error) {
	return m.sources, m.err
}

func (m *mockSourceService) Grouped(
	_ context.Context, _ string,
) (map[domain.SourceKind][]domain.SourceSummary, error) {
	return nil, m.err
}

func (m *mockSourceService) Stats(_ context.Context, _ string) (*domain.FileStats, error) {
	return nil, m.err
}

func (m *mockSourceService) Chunks(_ context.Context, _ string) ([]domain.ChunkRecord, error) {
	return nil, m.err
}

func (m *mockSourceService) Content(_ context.Context, file string) (string, error) {
	m.file = file
	return m.content, m.err
}

// mockLinkService is a mock implementation of driving.LinkService.
type mockLinkService struct {
	resolution domain.Resolution
	entries    []domain.DailyEntry
	err        error
	resolved   string
}

func (m *mockLinkService) Extract(_ string) []string {
	return nil
}

func (m *mockLinkService) Resolve(_ context.Context, link string) (domain.Resolution, error) {
	m.resolved = link
	return m.resolution, m.err
}

func (m *mockLinkService) References(_ context.Context, _ string) ([]domain.LinkReference, error) {
	return nil, m.err
}

func (m *mockLinkService) Backlinks(_ context.Context, _ string) ([]domain.LinkReference, error) {
	return nil, m.err
}

func (m *mockLinkService) DailyEntries(_ context.Context, _ string) ([]domain.DailyEntry, error) {
	return m.entries, m.err
}
