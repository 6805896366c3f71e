package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/core/domain"
)

func catResult() domain.SearchResult {
	return domain.SearchResult{
		ChunkRecord: domain.ChunkRecord{
			File:       "pets/my cats.md",
			Title:      "My Cats",
			Content:    "Cats sleep most of the day.",
			ChunkIndex: 2,
		},
		Similarity: 0.91,
	}
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Search == nil {
		ports.Search = &mockSearchService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		search := &mockSearchService{results: []domain.SearchResult{catResult()}}
		server := newTestServer(t, &Ports{Search: search})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "cats", Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "pets/my cats.md", got.File)
		assert.Equal(t, "My Cats", got.Title)
		assert.Equal(t, 2, got.ChunkIndex)
		assert.Equal(t, "notes://file/pets/my%20cats.md", got.URI)
		assert.InDelta(t, 0.91, got.Similarity, 1e-9)
		assert.Equal(t, "Cats sleep most of the day.", got.Content)
		assert.Equal(t, 3, search.opts.TopK)
	})

	t.Run("default limit is the default top k", func(t *testing.T) {
		search := &mockSearchService{}
		server := newTestServer(t, &Ports{Search: search})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "cats"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, domain.DefaultTopK, search.opts.TopK)
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "  "})

		assert.ErrorIs(t, err, ErrMissingQuery)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		search := &mockSearchService{err: errors.New("search failed")}
		server := newTestServer(t, &Ports{Search: search})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "cats"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer text and sources", func(t *testing.T) {
		assistant := &mockAssistantService{answer: &domain.Answer{
			Question: "what do cats do?",
			Outcome:  domain.OutcomeAnswered,
			Sources:  []domain.SearchResult{catResult()},
			Result:   domain.GenerationResult{Text: "They sleep.", Model: "gemma3n:e4b"},
		}}
		server := newTestServer(t, &Ports{Assistant: assistant})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "what do cats do?"})

		require.NoError(t, err)
		assert.Equal(t, "They sleep.", output.Text)
		assert.Equal(t, "answered", output.Outcome)
		assert.Equal(t, "gemma3n:e4b", output.Model)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "pets/my cats.md", output.Sources[0].File)
	})

	t.Run("generation failure is reported as text", func(t *testing.T) {
		assistant := &mockAssistantService{answer: &domain.Answer{
			Outcome: domain.OutcomeGenerationFailed,
			Result:  domain.GenerationResult{Model: "gemma3n:e4b", Err: errors.New("connection refused")},
		}}
		server := newTestServer(t, &Ports{Assistant: assistant})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "cats?"})

		require.NoError(t, err)
		assert.Equal(t, "generation_failed", output.Outcome)
		assert.Contains(t, output.Text, "connection refused")
	})

	t.Run("unavailable without an assistant", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Query: "cats?"})

		assert.ErrorIs(t, err, ErrToolUnavailable)
	})
}

func TestServer_handleSummarize(t *testing.T) {
	ctx := context.Background()

	assistant := &mockAssistantService{summary: &domain.Summary{
		Query:   "gardening",
		Outcome: domain.OutcomeNoRelevant,
	}}
	server := newTestServer(t, &Ports{Assistant: assistant})

	_, output, err := server.handleSummarize(ctx, nil, AskInput{Query: "gardening"})

	require.NoError(t, err)
	assert.Equal(t, "No relevant information found for 'gardening' in your notes.", output.Text)
	assert.Empty(t, output.Sources)

	_, _, err = server.handleSummarize(ctx, nil, AskInput{})
	assert.ErrorIs(t, err, ErrMissingQuery)
}

func TestServer_handleResolveLink(t *testing.T) {
	ctx := context.Background()

	t.Run("strips brackets and returns the file", func(t *testing.T) {
		links := &mockLinkService{resolution: domain.Resolution{
			Link:     "My Cats",
			File:     "pets/my cats.md",
			Strategy: domain.StrategyExactTitle,
		}}
		server := newTestServer(t, &Ports{Link: links})

		_, output, err := server.handleResolveLink(ctx, nil, ResolveLinkInput{Link: "[[My Cats]]"})

		require.NoError(t, err)
		assert.Equal(t, "My Cats", links.resolved)
		assert.True(t, output.Resolved)
		assert.Equal(t, "pets/my cats.md", output.File)
		assert.Equal(t, "exact_title", output.Strategy)
		assert.Equal(t, "notes://file/pets/my%20cats.md", output.URI)
	})

	t.Run("unresolved link is not an error", func(t *testing.T) {
		links := &mockLinkService{resolution: domain.Resolution{
			Link:     "Nowhere",
			Strategy: domain.StrategyUnresolved,
		}}
		server := newTestServer(t, &Ports{Link: links})

		_, output, err := server.handleResolveLink(ctx, nil, ResolveLinkInput{Link: "Nowhere"})

		require.NoError(t, err)
		assert.False(t, output.Resolved)
		assert.Empty(t, output.URI)
	})

	t.Run("empty link is rejected", func(t *testing.T) {
		server := newTestServer(t, &Ports{Link: &mockLinkService{}})

		_, _, err := server.handleResolveLink(ctx, nil, ResolveLinkInput{Link: "[[]]"})

		assert.ErrorIs(t, err, ErrMissingQuery)
	})
}

func TestServer_handleDailyEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("returns entries", func(t *testing.T) {
		links := &mockLinkService{entries: []domain.DailyEntry{{
			EntryContext: domain.EntryContext{Timestamp: "09:30", Description: "Standup", Status: "done"},
			Line:         3,
			Links:        []string{"Project X"},
		}}}
		server := newTestServer(t, &Ports{Link: links})

		_, output, err := server.handleDailyEntries(ctx, nil, DailyEntriesInput{File: "daily/2024-05-01.md"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "Standup", output.Entries[0].Description)
		assert.Equal(t, []string{"Project X"}, output.Entries[0].Links)
	})

	t.Run("no entries gives an empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Link: &mockLinkService{}})

		_, output, err := server.handleDailyEntries(ctx, nil, DailyEntriesInput{File: "daily/2024-05-02.md"})

		require.NoError(t, err)
		assert.NotNil(t, output.Entries)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("propagates not found", func(t *testing.T) {
		links := &mockLinkService{err: domain.ErrNotFound}
		server := newTestServer(t, &Ports{Link: links})

		_, _, err := server.handleDailyEntries(ctx, nil, DailyEntriesInput{File: "missing.md"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
