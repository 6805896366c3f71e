package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/margin/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for margin resources.
	uriScheme = "notes://"

	filePrefix = uriScheme + "file/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Every indexed note file with its title, kind, tags and chunk count",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	// Reserved expansion so the path may contain slashes.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: filePrefix + "{+path}",
		Name:        "note-file",
		Description: "Full text of a note, relative to the notes root",
		MIMEType:    "text/markdown",
	}, s.handleFileResource)
}

// handleSourcesResource returns a summary of every indexed file.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Source == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	sources, err := s.ports.Source.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	type sourceInfo struct {
		File   string            `json:"file"`
		Title  string            `json:"title"`
		Kind   domain.SourceKind `json:"kind"`
		Tags   []string          `json:"tags,omitempty"`
		Chunks int               `json:"chunks"`
		URI    string            `json:"uri"`
	}

	infos := make([]sourceInfo, len(sources))
	for i := range sources {
		infos[i] = sourceInfo{
			File:   sources[i].File,
			Title:  sources[i].Title,
			Kind:   sources[i].Kind,
			Tags:   sources[i].Tags,
			Chunks: sources[i].ChunkCount,
			URI:    fileURI(sources[i].File),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sources: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleFileResource returns the full content of one note.
func (s *Server) handleFileResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Source == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	file := extractFilePath(req.Params.URI)
	if file == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Source.Content(ctx, file)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: mimeTypeFor(file),
			Text:     content,
		}},
	}, nil
}

// fileURI builds notes://file/<path>, escaping each path segment.
func fileURI(file string) string {
	segments := strings.Split(file, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return filePrefix + strings.Join(segments, "/")
}

// extractFilePath extracts the relative path from a URI like notes://file/{path}.
func extractFilePath(uri string) string {
	if !strings.HasPrefix(uri, filePrefix) {
		return ""
	}
	path, err := url.PathUnescape(strings.TrimPrefix(uri, filePrefix))
	if err != nil {
		return ""
	}
	return path
}

func mimeTypeFor(file string) string {
	if domain.Classify(file) == domain.SourceKindText {
		return "text/plain"
	}
	return "text/markdown"
}
