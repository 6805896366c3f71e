package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/core/domain"
)

// MockAssistantService implements driving.AssistantService for testing.
type MockAssistantService struct {
	ConverseFunc func(ctx context.Context, s domain.Session, q string) (domain.Session, *domain.Answer, error)
	sessions     int
}

func (m *MockAssistantService) Ask(context.Context, string, domain.SearchOptions) (*domain.Answer, error) {
	return &domain.Answer{}, nil
}

func (m *MockAssistantService) Summarize(context.Context, string, domain.SearchOptions) (*domain.Summary, error) {
	return &domain.Summary{}, nil
}

func (m *MockAssistantService) Converse(
	ctx context.Context, s domain.Session, q string,
) (domain.Session, *domain.Answer, error) {
	if m.ConverseFunc != nil {
		return m.ConverseFunc(ctx, s, q)
	}
	answer := &domain.Answer{Question: q, Outcome: domain.OutcomeAnswered,
		Result: domain.GenerationResult{Text: "answer to " + q}}
	return s.WithTurn(domain.Turn{
		Question: q,
		Answer:   answer.Text(),
		Outcome:  answer.Outcome,
		Sources:  []string{"garden.md", "garden.md", "compost.md"},
	}), answer, nil
}

func (m *MockAssistantService) NewSession() domain.Session {
	m.sessions++
	return domain.Session{ID: "session-" + string(rune('0'+m.sessions))}
}

func readyView(assistant *MockAssistantService) *View {
	v := NewView(nil, nil, assistant)
	v.SetDimensions(100, 40)
	return v
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// ask types a question, presses enter and feeds the answer back.
func ask(t *testing.T, v *View, question string) {
	t.Helper()
	typeText(v, question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView_StartsSession(t *testing.T) {
	assistant := &MockAssistantService{}

	view := NewView(nil, nil, assistant)

	assert.Equal(t, "session-1", view.Session().ID)
	assert.False(t, view.Thinking())
	assert.NotNil(t, view.Init())
}

func TestNewView_NoAssistant(t *testing.T) {
	view := NewView(nil, nil, nil)

	assert.Empty(t, view.Session().ID)
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(nil, nil, nil)

	assert.Contains(t, view.View(), "Initialising")
}

func TestView_View_Empty(t *testing.T) {
	view := readyView(&MockAssistantService{})

	output := view.View()

	assert.Contains(t, output, "Chat")
	assert.Contains(t, output, "Ask a question")
}

func TestView_Enter_Converses(t *testing.T) {
	view := readyView(&MockAssistantService{})
	typeText(view, "what grows?")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.True(t, view.Thinking())
	assert.Contains(t, view.View(), "what grows?")
	assert.Contains(t, view.View(), "Thinking")

	view.Update(cmd())

	assert.False(t, view.Thinking())
	require.Len(t, view.Session().Turns, 1)
	output := view.View()
	assert.Contains(t, output, "answer to what grows?")
	assert.Contains(t, output, "sources: garden.md, compost.md")
}

func TestView_Enter_PassesSessionForward(t *testing.T) {
	var seen []int
	assistant := &MockAssistantService{}
	assistant.ConverseFunc = func(_ context.Context, s domain.Session, q string) (domain.Session, *domain.Answer, error) {
		seen = append(seen, len(s.Turns))
		return s.WithTurn(domain.Turn{Question: q, Answer: "ok", Outcome: domain.OutcomeAnswered}), &domain.Answer{}, nil
	}
	view := readyView(assistant)

	ask(t, view, "first")
	ask(t, view, "second")

	assert.Equal(t, []int{0, 1}, seen)
	assert.Len(t, view.Session().Turns, 2)
}

func TestView_Enter_EmptyQuestion(t *testing.T) {
	view := readyView(&MockAssistantService{})
	typeText(view, "   ")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Enter_WhileThinking(t *testing.T) {
	view := readyView(&MockAssistantService{})
	typeText(view, "one")
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(view, "two")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd, "only one question in flight")
}

func TestView_ShowsNonAnsweredOutcome(t *testing.T) {
	assistant := &MockAssistantService{
		ConverseFunc: func(_ context.Context, s domain.Session, q string) (domain.Session, *domain.Answer, error) {
			return s.WithTurn(domain.Turn{Question: q, Answer: "Nothing relevant.", Outcome: domain.OutcomeNoRelevant}),
				&domain.Answer{Outcome: domain.OutcomeNoRelevant}, nil
		},
	}
	view := readyView(assistant)

	ask(t, view, "pottery?")

	assert.Contains(t, view.View(), "(no_relevant)")
}

func TestView_ConverseError(t *testing.T) {
	assistant := &MockAssistantService{
		ConverseFunc: func(_ context.Context, s domain.Session, _ string) (domain.Session, *domain.Answer, error) {
			return s, nil, domain.ErrEmbeddingUnavailable
		},
	}
	view := readyView(assistant)

	ask(t, view, "anything")

	assert.ErrorIs(t, view.Err(), domain.ErrEmbeddingUnavailable)
	assert.Empty(t, view.Session().Turns)
	assert.Contains(t, view.View(), "Error")
}

func TestView_NoAssistant(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.SetDimensions(100, 40)

	ask(t, view, "hello")

	assert.ErrorIs(t, view.Err(), ErrNoAssistant)
}

func TestView_CtrlN_NewSession(t *testing.T) {
	assistant := &MockAssistantService{}
	view := readyView(assistant)
	ask(t, view, "first")

	view.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, "session-2", view.Session().ID)
	assert.Empty(t, view.Session().Turns)
}

func TestView_ErrorOccurred(t *testing.T) {
	view := readyView(&MockAssistantService{})

	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
}

func TestView_Esc_BackToMenu(t *testing.T) {
	view := readyView(&MockAssistantService{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_TranscriptKeepsLatestTurns(t *testing.T) {
	view := NewView(nil, nil, &MockAssistantService{})
	view.SetDimensions(100, 14)

	for _, q := range []string{"alpha", "beta", "gamma", "delta"} {
		ask(t, view, q)
	}

	output := view.View()
	assert.Contains(t, output, "answer to delta")
	assert.NotContains(t, output, "alpha")
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}
