package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	File       string  `json:"file"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	URI        string  `json:"uri"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask and summarize tools.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer or topic to summarise"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of passages to retrieve (default from settings)"`
}

// AskOutput is the output schema for the ask and summarize tools.
type AskOutput struct {
	Text    string               `json:"text"`
	Outcome string               `json:"outcome"`
	Model   string               `json:"model,omitempty"`
	Sources []SearchResultOutput `json:"sources"`
}

// ResolveLinkInput is the input schema for the resolve_link tool.
type ResolveLinkInput struct {
	Link string `json:"link" jsonschema:"wikilink target, with or without the surrounding brackets"`
}

// ResolveLinkOutput is the output schema for the resolve_link tool.
type ResolveLinkOutput struct {
	Link     string `json:"link"`
	Resolved bool   `json:"resolved"`
	File     string `json:"file,omitempty"`
	Strategy string `json:"strategy"`
	URI      string `json:"uri,omitempty"`
}

// DailyEntriesInput is the input schema for the daily_entries tool.
type DailyEntriesInput struct {
	File string `json:"file" jsonschema:"path of the daily note relative to the notes root"`
}

// DailyEntriesOutput is the output schema for the daily_entries tool.
type DailyEntriesOutput struct {
	File    string              `json:"file"`
	Entries []domain.DailyEntry `json:"entries"`
	Count   int                 `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the note passages most similar to a query",
	}, s.handleSearch)

	if s.ports.Assistant != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the user's notes, citing the passages used",
		}, s.handleAsk)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "summarize",
			Description: "Give a short overview of what the notes say about a topic",
		}, s.handleSummarize)
	}

	if s.ports.Link != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "resolve_link",
			Description: "Resolve a [[wikilink]] to the note file it refers to",
		}, s.handleResolveLink)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "daily_entries",
			Description: "List the timestamped entries of a daily note with their status, area and links",
		}, s.handleDailyEntries)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, ErrMissingQuery
	}

	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultTopK
	}

	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{TopK: limit})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Assistant == nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", ErrToolUnavailable)
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, AskOutput{}, ErrMissingQuery
	}

	answer, err := s.ports.Assistant.Ask(ctx, input.Query, domain.SearchOptions{TopK: input.Limit})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Text:    answer.Text(),
		Outcome: string(answer.Outcome),
		Model:   answer.Result.Model,
		Sources: toResultOutputs(answer.Sources),
	}, nil
}

// handleSummarize handles the summarize tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Assistant == nil {
		return nil, AskOutput{}, fmt.Errorf("summarize: %w", ErrToolUnavailable)
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, AskOutput{}, ErrMissingQuery
	}

	summary, err := s.ports.Assistant.Summarize(ctx, input.Query, domain.SearchOptions{TopK: input.Limit})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Text:    summary.Text(),
		Outcome: string(summary.Outcome),
		Model:   summary.Result.Model,
		Sources: toResultOutputs(summary.Sources),
	}, nil
}

// handleResolveLink handles the resolve_link tool invocation.
func (s *Server) handleResolveLink(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveLinkInput,
) (*mcp.CallToolResult, ResolveLinkOutput, error) {
	if s.ports.Link == nil {
		return nil, ResolveLinkOutput{}, fmt.Errorf("resolve_link: %w", ErrToolUnavailable)
	}

	link := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(input.Link), "[["), "]]")
	if link == "" {
		return nil, ResolveLinkOutput{}, ErrMissingQuery
	}

	res, err := s.ports.Link.Resolve(ctx, link)
	if err != nil {
		return nil, ResolveLinkOutput{}, err
	}

	out := ResolveLinkOutput{
		Link:     res.Link,
		Resolved: res.Resolved(),
		File:     res.File,
		Strategy: string(res.Strategy),
	}
	if out.Resolved {
		out.URI = fileURI(res.File)
	}
	return nil, out, nil
}

// handleDailyEntries handles the daily_entries tool invocation.
func (s *Server) handleDailyEntries(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DailyEntriesInput,
) (*mcp.CallToolResult, DailyEntriesOutput, error) {
	if s.ports.Link == nil {
		return nil, DailyEntriesOutput{}, fmt.Errorf("daily_entries: %w", ErrToolUnavailable)
	}
	if strings.TrimSpace(input.File) == "" {
		return nil, DailyEntriesOutput{}, ErrMissingQuery
	}

	entries, err := s.ports.Link.DailyEntries(ctx, input.File)
	if err != nil {
		return nil, DailyEntriesOutput{}, err
	}
	if entries == nil {
		entries = []domain.DailyEntry{}
	}

	return nil, DailyEntriesOutput{
		File:    input.File,
		Entries: entries,
		Count:   len(entries),
	}, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			File:       results[i].File,
			Title:      results[i].Title,
			ChunkIndex: results[i].ChunkIndex,
			URI:        fileURI(results[i].File),
			Similarity: results[i].Similarity,
			Content:    results[i].Content,
		}
	}
	return out
}
