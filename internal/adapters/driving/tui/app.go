package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/views/note"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/views/sources"
	"github.com/custodia-labs/margin/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles

	menuView    *menu.View
	searchView  *search.View
	chatView    *chat.View
	sourcesView *sources.View
	noteView    *note.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// summary describes the last loaded corpus.
	summary string

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	menuView := menu.NewView(s)
	if ports.Assistant == nil {
		menuView.Disable(messages.ViewChat, "no language model")
	}

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menuView,
		searchView:  search.NewView(s, nil, ports.Search),
		chatView:    chat.NewView(s, nil, ports.Assistant),
		sourcesView: sources.NewView(s, ports.Source),
		noteView:    note.NewView(s, ports.Source, ports.Link),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.chatView.WithContext(ctx)
	a.sourcesView.WithContext(ctx)
	a.noteView.WithContext(ctx)
	return a
}

// WithTopK sets how many passages the search view asks for.
func (a *App) WithTopK(k int) *App {
	a.searchView.WithTopK(k)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("margin"),
		a.loadCorpus(),
	)
}

// loadCorpus indexes the notes root, or reuses the cached snapshot.
func (a *App) loadCorpus() tea.Cmd {
	if a.ports.Corpus == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := a.ports.Corpus.Load(a.ctx)
		if err != nil {
			return messages.CorpusReloaded{Err: err}
		}
		return messages.CorpusReloaded{Chunks: snap.Corpus.Len(), Files: len(snap.Corpus.Files())}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewMenu, messages.ViewNote, messages.ViewHelp:
		}
		return a, nil

	case messages.FileSelected:
		a.currentView = messages.ViewNote
		return a, a.noteView.SetFile(msg.File, msg.Back)

	case messages.SearchCompleted, messages.SuggestionsLoaded:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.AnswerReceived:
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	case messages.SourcesLoaded:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.NoteLoaded:
		a.noteView, cmd = a.noteView.Update(msg)
		return a, cmd

	case messages.CorpusReloaded:
		a.handleCorpusReloaded(msg)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewNote:
			a.noteView, cmd = a.noteView.Update(msg)
		case messages.ViewMenu, messages.ViewSources, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a.forward(msg)
}

// handleKey routes key presses to the active view.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		if msg.String() == "r" && a.ports.Corpus != nil {
			a.summary = "Indexing notes..."
			a.menuView.SetSummary(a.summary)
			return a, a.loadCorpus()
		}
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
		return a, nil
	case messages.ViewSearch, messages.ViewChat, messages.ViewSources, messages.ViewNote:
	}

	return a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewNote:
		a.noteView, cmd = a.noteView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) handleCorpusReloaded(msg messages.CorpusReloaded) {
	if msg.Err != nil {
		a.err = msg.Err
		a.summary = "Index failed: " + msg.Err.Error()
	} else {
		a.err = nil
		a.summary = fmt.Sprintf("%d chunks from %d files", msg.Chunks, msg.Files)
	}
	a.menuView.SetSummary(a.summary)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewNote:
		return a.noteView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  r           Re-index the notes directory
  q           Quit

Search:
  (type)      Enter search query
  enter       Submit search, then open the selected note
  n           New search

Chat:
  enter       Ask
  ctrl+n      Start a new conversation

Sources:
  f, tab      Filter by kind
  r           Reload the list
  enter       Open note

Note:
  j/k, g/G    Scroll
  tab         Move between text and links
  enter       Follow the selected link

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// Session returns the current chat session.
func (a *App) Session() domain.Session {
	return a.chatView.Session()
}

// Summary returns the description of the loaded corpus.
func (a *App) Summary() string {
	return a.summary
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.noteView.SetDimensions(width, height)
}
