package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/logger"
)

// Ensure AssistantService implements the interfaces.
var (
	_ driving.AssistantService = (*AssistantService)(nil)
	_ driven.PromptStoreAware  = (*AssistantService)(nil)
)

// historyTurns is how many previous turns are replayed to the generator.
const historyTurns = 6

// AssistantService answers questions from retrieved sources. The generator
// is called at most once per request and its failures are reported inside
// the returned value.
type AssistantService struct {
	corpus   driving.CorpusService
	search   *SearchService
	llm      driven.LLMService
	prompts  *PromptBuilder
	settings domain.RetrievalSettings
	now      func() time.Time
}

// NewAssistantService creates an assistant. llm may be nil, in which case
// every generation attempt reports domain.ErrLLMUnavailable.
func NewAssistantService(
	corpus driving.CorpusService,
	search *SearchService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.RetrievalSettings,
) *AssistantService {
	return &AssistantService{
		corpus:   corpus,
		search:   search,
		llm:      llm,
		prompts:  NewPromptBuilder(prompts),
		settings: settings,
		now:      time.Now,
	}
}

// SetPromptStore replaces the prompt templates.
func (a *AssistantService) SetPromptStore(store driven.PromptStore) {
	a.prompts.SetPromptStore(store)
}

// Ask retrieves sources and asks the generator to answer from them.
func (a *AssistantService) Ask(
	ctx context.Context, question string, opts domain.SearchOptions,
) (*domain.Answer, error) {
	logger.Section("Ask")
	answer := &domain.Answer{Question: question, Sources: []domain.SearchResult{}}

	sources, empty, err := a.retrieve(ctx, question, pickTopK(opts.TopK, a.settings.TopK, domain.DefaultTopK))
	if err != nil {
		return nil, err
	}
	switch {
	case empty:
		answer.Outcome = domain.OutcomeNoNotes
		return answer, nil
	case len(sources) == 0:
		answer.Outcome = domain.OutcomeNoRelevant
		return answer, nil
	}
	answer.Sources = sources

	prompt, err := a.prompts.AnswerPrompt(question, sources)
	if err != nil {
		return nil, err
	}
	answer.Result = a.generate(ctx, func(llm driven.LLMService) (string, error) {
		return llm.Generate(ctx, prompt, driven.GenerateOptions{})
	})
	answer.Outcome = outcomeOf(answer.Result)
	return answer, nil
}

// Summarize retrieves a broader set of sources and asks for a short overview.
func (a *AssistantService) Summarize(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.Summary, error) {
	logger.Section("Summarize")
	summary := &domain.Summary{Query: query, Sources: []domain.SearchResult{}}

	sources, empty, err := a.retrieve(ctx, query, pickTopK(opts.TopK, a.settings.SummaryTopK, domain.DefaultSummaryTopK))
	if err != nil {
		return nil, err
	}
	switch {
	case empty:
		summary.Outcome = domain.OutcomeNoNotes
		return summary, nil
	case len(sources) == 0:
		summary.Outcome = domain.OutcomeNoRelevant
		return summary, nil
	}
	summary.Sources = sources

	prompt, err := a.prompts.SummaryPrompt(query, sources)
	if err != nil {
		return nil, err
	}
	summary.Result = a.generate(ctx, func(llm driven.LLMService) (string, error) {
		return llm.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{})
	})
	summary.Outcome = outcomeOf(summary.Result)
	return summary, nil
}

// Converse answers a question within a session. Earlier turns are replayed
// to the generator; the returned session has the new turn appended and the
// caller's session is left untouched.
func (a *AssistantService) Converse(
	ctx context.Context, session domain.Session, question string,
) (domain.Session, *domain.Answer, error) {
	logger.Section("Converse")
	answer := &domain.Answer{Question: question, Sources: []domain.SearchResult{}}

	sources, empty, err := a.retrieve(ctx, question, pickTopK(0, a.settings.ChatTopK, domain.DefaultChatTopK))
	if err != nil {
		return session, nil, err
	}

	switch {
	case empty:
		answer.Outcome = domain.OutcomeNoNotes
	case len(sources) == 0:
		answer.Outcome = domain.OutcomeNoRelevant
	default:
		answer.Sources = sources
		messages, err := a.chatMessages(session, question, sources)
		if err != nil {
			return session, nil, err
		}
		answer.Result = a.generate(ctx, func(llm driven.LLMService) (string, error) {
			return llm.Chat(ctx, messages, driven.ChatOptions{})
		})
		answer.Outcome = outcomeOf(answer.Result)
	}

	files := make([]string, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		files = append(files, s.File)
	}
	next := session.WithTurn(domain.Turn{
		Question: question,
		Answer:   answer.Text(),
		Outcome:  answer.Outcome,
		Sources:  files,
		AskedAt:  a.now(),
	})
	return next, answer, nil
}

// NewSession starts an empty conversation.
func (a *AssistantService) NewSession() domain.Session {
	return domain.Session{ID: uuid.New().String(), Turns: []domain.Turn{}}
}

// retrieve reports empty when the corpus has nothing indexed.
func (a *AssistantService) retrieve(
	ctx context.Context, query string, topK int,
) ([]domain.SearchResult, bool, error) {
	snap, err := a.corpus.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load corpus: %w", err)
	}
	if snap.Index.Empty() {
		return nil, true, nil
	}
	results, err := a.search.SearchSnapshot(ctx, snap, query, topK)
	if err != nil {
		return nil, false, err
	}
	return results, false, nil
}

func (a *AssistantService) chatMessages(
	session domain.Session, question string, sources []domain.SearchResult,
) ([]driven.ChatMessage, error) {
	system, err := a.prompts.ChatSystemPrompt()
	if err != nil {
		return nil, err
	}
	prompt, err := a.prompts.AnswerPrompt(question, sources)
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{Role: driven.RoleSystem, Content: system}}
	turns := session.Turns
	if len(turns) > historyTurns {
		turns = turns[len(turns)-historyTurns:]
	}
	for _, t := range turns {
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleUser, Content: t.Question},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: t.Answer},
		)
	}
	return append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: prompt}), nil
}

// generate makes one generator call and captures any failure in the result.
func (a *AssistantService) generate(
	ctx context.Context, call func(driven.LLMService) (string, error),
) domain.GenerationResult {
	if a.llm == nil {
		return domain.GenerationResult{Model: "LLM", Err: domain.ErrLLMUnavailable}
	}
	res := domain.GenerationResult{Model: a.llm.ModelName()}
	defer logger.Timed("Generation with " + res.Model)()

	text, err := call(a.llm)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		res.Err = err
		return res
	}
	res.Text = text
	return res
}

func outcomeOf(res domain.GenerationResult) domain.Outcome {
	if res.OK() {
		return domain.OutcomeAnswered
	}
	return domain.OutcomeGenerationFailed
}

func pickTopK(requested, configured, fallback int) int {
	if requested > 0 {
		return requested
	}
	if configured > 0 {
		return configured
	}
	return fallback
}
