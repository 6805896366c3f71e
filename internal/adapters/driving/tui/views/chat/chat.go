// Package chat provides the conversational view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// ErrNoAssistant indicates that no assistant service was provided.
var ErrNoAssistant = errors.New("no language model configured")

// View holds one chat session. The session lives here, not in the core.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Prompt
	statusbar *status.Bar

	assistant driving.AssistantService
	ctx       context.Context

	session  domain.Session
	pending  string
	thinking bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a chat view with a fresh session.
func NewView(s *styles.Styles, km *keymap.KeyMap, assistant driving.AssistantService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewChatPrompt(s),
		statusbar: status.NewBar(s, km),
		assistant: assistant,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
	v.statusbar.SetState(status.StateChat)
	v.newSession()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) newSession() {
	if v.assistant != nil {
		v.session = v.assistant.NewSession()
	} else {
		v.session = domain.Session{}
	}
	v.pending = ""
	v.err = nil
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.thinking = false
		v.pending = ""
		v.statusbar.SetState(status.StateChat)
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.session = msg.Session
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "ctrl+n":
		if !v.thinking {
			v.newSession()
			v.input.Reset()
		}
		return v, nil
	case "enter":
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.thinking {
			return v, nil
		}
		v.input.Reset()
		v.pending = question
		v.thinking = true
		v.err = nil
		v.statusbar.SetState(status.StateThinking)
		return v, v.converse(v.session, question)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// converse asks within the given session snapshot.
func (v *View) converse(session domain.Session, question string) tea.Cmd {
	return func() tea.Msg {
		if v.assistant == nil {
			return messages.AnswerReceived{Session: session, Err: ErrNoAssistant}
		}
		next, answer, err := v.assistant.Converse(v.ctx, session, question)
		return messages.AnswerReceived{Session: next, Answer: answer, Err: err}
	}
}

// View renders the transcript above the prompt.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	transcript := v.transcriptLines()
	room := max(v.height-8, 1)
	if len(transcript) > room {
		transcript = transcript[len(transcript)-room:]
	}

	sections := []string{v.styles.Title.Render("Chat"), ""}
	if len(transcript) == 0 {
		sections = append(sections, v.styles.Muted.Render("Ask a question. Answers cite the notes they come from."))
	} else {
		sections = append(sections, strings.Join(transcript, "\n"))
	}
	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}
	sections = append(sections, "", v.input.View(), v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// transcriptLines renders every turn, then the pending question.
func (v *View) transcriptLines() []string {
	width := max(v.width-4, 20)
	var lines []string
	for _, turn := range v.session.Turns {
		lines = append(lines, v.styles.Question.Render("> "+turn.Question))
		for _, l := range strings.Split(ansi.Wrap(turn.Answer, width, ""), "\n") {
			lines = append(lines, v.styles.Answer.Render(l))
		}
		if len(turn.Sources) > 0 {
			lines = append(lines, v.styles.Citation.Render("  sources: "+strings.Join(dedupe(turn.Sources), ", ")))
		}
		if turn.Outcome != domain.OutcomeAnswered {
			lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("  (%s)", turn.Outcome)))
		}
		lines = append(lines, "")
	}
	if v.pending != "" {
		lines = append(lines, v.styles.Question.Render("> "+v.pending), v.styles.Muted.Render("  ..."))
	}
	return lines
}

// dedupe keeps the first occurrence of each file.
func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Session returns the current session.
func (v *View) Session() domain.Session {
	return v.session
}

// Thinking reports whether an answer is being generated.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
