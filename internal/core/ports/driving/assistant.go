package driving

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// AssistantService answers questions and summarises topics from the notes.
// Generator failures are reported inside the returned value, never as errors;
// errors are reserved for retrieval failures.
type AssistantService interface {
	// Ask retrieves sources for a question and generates a grounded answer.
	Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error)

	// Summarize retrieves a broader set of sources and generates an overview.
	Summarize(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Summary, error)

	// Converse asks within a session and returns the session with the turn added.
	Converse(ctx context.Context, session domain.Session, question string) (domain.Session, *domain.Answer, error)

	// NewSession starts an empty conversation.
	NewSession() domain.Session
}
