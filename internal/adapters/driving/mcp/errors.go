// Package mcp provides an MCP (Model Context Protocol) server adapter for margin.
// It lets AI assistants search, question and browse the user's notes.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingQuery is returned when a tool is called without its query text.
	ErrMissingQuery = errors.New("mcp: query is required")

	// ErrToolUnavailable is returned when a tool's backing service is not configured.
	ErrToolUnavailable = errors.New("mcp: tool is not available")
)
