package markdown

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// headerDelimiter opens and closes a front matter block.
const headerDelimiter = "---"

// Normaliser handles Markdown notes with an optional YAML front matter block.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Higher than plaintext
}

// Normalise separates the front matter from the body. The title is the
// front matter title, falling back to the filename stem. A malformed header
// is an error so the file is reported and skipped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawNote) (*domain.Note, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	}

	meta, body, err := Split(string(raw.Content))
	if err != nil {
		return nil, err
	}

	title, ok := meta.Title()
	if !ok {
		title = domain.FileStem(raw.Path)
	}

	return &domain.Note{
		Path:     raw.Path,
		Title:    title,
		Body:     body,
		Metadata: meta,
	}, nil
}

// Split parses a leading front matter block. Text without one is returned
// whole with empty metadata.
func Split(content string) (domain.Metadata, string, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	normalised := strings.ReplaceAll(content, "\r\n", "\n")

	header, body, found := cutHeader(normalised)
	if !found {
		return domain.Metadata{}, content, nil
	}

	meta := domain.Metadata{}
	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
			return nil, "", fmt.Errorf("parse front matter: %w", err)
		}
		if meta == nil {
			meta = domain.Metadata{}
		}
	}
	return meta, body, nil
}

// cutHeader splits "---\n<header>\n---\n<body>". The closing delimiter may be
// the last line of the file.
func cutHeader(content string) (header, body string, found bool) {
	first, rest, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimRight(first, " \t") != headerDelimiter {
		return "", content, false
	}

	var lines []string
	for {
		line, after, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == headerDelimiter {
			return strings.Join(lines, "\n"), strings.TrimLeft(after, "\n"), true
		}
		if !more {
			return "", content, false
		}
		lines = append(lines, line)
		rest = after
	}
}
