package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text notes. The whole file is body text and
// there is never any metadata.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise uses the file content as body and the filename stem as title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawNote) (*domain.Note, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	}

	return &domain.Note{
		Path:     raw.Path,
		Title:    domain.FileStem(raw.Path),
		Body:     string(raw.Content),
		Metadata: domain.Metadata{},
	}, nil
}
