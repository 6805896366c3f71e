package mcp

import (
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Search ranks note chunks against a query.
	Search driving.SearchService

	// Assistant answers questions and summarises topics. Optional.
	Assistant driving.AssistantService

	// Source lists and reads indexed files. Optional.
	Source driving.SourceService

	// Link resolves wikilinks and parses daily notes. Optional.
	Link driving.LinkService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
