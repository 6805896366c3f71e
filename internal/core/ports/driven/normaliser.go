package driven

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// Normaliser separates a raw file into title, metadata and body text.
// Each normaliser handles specific file extensions.
type Normaliser interface {
	// SupportedExtensions returns lower-cased extensions including the dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise parses a raw note. Errors mark the file as skipped.
	Normalise(ctx context.Context, raw *domain.RawNote) (*domain.Note, error)
}

// NormaliserRegistry dispatches raw notes to the best normaliser.
type NormaliserRegistry interface {
	// Normalise uses the highest-priority normaliser for the file's extension.
	// Returns domain.ErrUnsupportedType when none matches.
	Normalise(ctx context.Context, raw *domain.RawNote) (*domain.Note, error)

	// Register adds a normaliser.
	Register(normaliser Normaliser)

	// SupportedExtensions returns every extension some normaliser accepts.
	SupportedExtensions() []string
}
