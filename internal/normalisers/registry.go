package normalisers

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/normalisers/markdown"
	"github.com/custodia-labs/margin/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw notes to normalisers by file extension.
type Registry struct {
	byExt map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string][]driven.Normaliser),
	}
}

// NewDefaultRegistry returns a registry with the Markdown and plain text
// normalisers registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser for each extension it supports. Within an
// extension, normalisers are kept in descending priority.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.SupportedExtensions() {
		list := append(r.byExt[ext], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Normalise uses the highest-priority normaliser for the note's extension.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawNote) (*domain.Note, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	list := r.byExt[raw.Ext()]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.Ext())
	}
	return list[0].Normalise(ctx, raw)
}

// SupportedExtensions returns the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
