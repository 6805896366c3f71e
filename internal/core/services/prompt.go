package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// Relevance labels appended to each source block.
const (
	answerRelevanceLabel  = "Relevance"
	summaryRelevanceLabel = "Relevance Score"
)

// PromptBuilder assembles grounding prompts from ranked results. It never
// calls a generator.
type PromptBuilder struct {
	prompts driven.PromptStore
}

// NewPromptBuilder creates a builder reading templates from store.
func NewPromptBuilder(store driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{prompts: store}
}

// SetPromptStore replaces the template source.
func (b *PromptBuilder) SetPromptStore(store driven.PromptStore) {
	b.prompts = store
}

// AnswerPrompt builds the question-answering prompt.
func (b *PromptBuilder) AnswerPrompt(question string, results []domain.SearchResult) (string, error) {
	tmpl, err := b.template(driven.PromptAnswer)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(tmpl, question, FormatSources(results, answerRelevanceLabel)), nil
}

// SummaryPrompt builds the brief-overview prompt.
func (b *PromptBuilder) SummaryPrompt(query string, results []domain.SearchResult) (string, error) {
	tmpl, err := b.template(driven.PromptSummary)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(tmpl, query, FormatSources(results, summaryRelevanceLabel)), nil
}

// ChatSystemPrompt returns the system message for conversations.
func (b *PromptBuilder) ChatSystemPrompt() (string, error) {
	return b.template(driven.PromptChatSystem)
}

func (b *PromptBuilder) template(name string) (string, error) {
	if b.prompts == nil {
		return "", fmt.Errorf("load prompt %q: no prompt store", name)
	}
	tmpl, err := b.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return tmpl, nil
}

// FormatSources renders results in rank order as labelled blocks:
//
//	--- Source 1: notes/a.md ---
//	<chunk content>
//	(Relevance: 0.83)
func FormatSources(results []domain.SearchResult, label string) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "\n\n--- Source %d: %s ---\n", i+1, r.File)
		sb.WriteString(r.Content)
		fmt.Fprintf(&sb, "\n(%s: %.2f)", label, r.Similarity)
	}
	return sb.String()
}
