// Package tui provides an interactive terminal user interface for margin.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks passages against a query.
	Search driving.SearchService

	// Source browses and reads indexed files.
	Source driving.SourceService

	// Assistant answers questions. Nil disables the chat view.
	Assistant driving.AssistantService

	// Link resolves wikilinks. Nil hides links in the note view.
	Link driving.LinkService

	// Corpus loads the notes root. Nil disables reloading from the menu.
	Corpus driving.CorpusService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(search driving.SearchService, source driving.SourceService) *Ports {
	return &Ports{
		Search: search,
		Source: source,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Source == nil {
		return ErrMissingSourceService
	}
	return nil
}
