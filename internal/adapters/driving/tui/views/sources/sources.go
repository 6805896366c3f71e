// Package sources provides the indexed-files browser for the TUI.
package sources

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// View lists the files behind the corpus, filterable by kind.
type View struct {
	styles        *styles.Styles
	sourceService driving.SourceService
	ctx           context.Context

	sources  []domain.SourceSummary
	visible  []domain.SourceSummary
	kind     domain.SourceKind // empty shows every kind
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, sourceService driving.SourceService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		sourceService: sourceService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads sources.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSources()
}

// loadSources returns a command that lists every indexed file.
func (v *View) loadSources() tea.Cmd {
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.SourcesLoaded{Err: ErrNoSourceService}
		}
		sources, err := v.sourceService.List(v.ctx, "")
		return messages.SourcesLoaded{Sources: sources, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.sources = msg.Sources
		v.applyFilter()
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.visible)-1 {
			v.selected++
		}
	case "enter":
		if v.selected < len(v.visible) {
			file := v.visible[v.selected].File
			return v, func() tea.Msg {
				return messages.FileSelected{File: file, Back: messages.ViewSources}
			}
		}
	case "f", "tab":
		v.kind = nextKind(v.kind)
		v.applyFilter()
	case "r":
		v.loading = true
		return v, v.loadSources()
	}

	return v, nil
}

// nextKind cycles all, daily, markdown, text, other, all.
func nextKind(k domain.SourceKind) domain.SourceKind {
	kinds := domain.SourceKinds()
	if k == "" {
		return kinds[0]
	}
	for i, kind := range kinds {
		if kind == k && i+1 < len(kinds) {
			return kinds[i+1]
		}
	}
	return ""
}

func (v *View) applyFilter() {
	v.visible = v.visible[:0]
	for i := range v.sources {
		if v.kind == "" || v.sources[i].Kind == v.kind {
			v.visible = append(v.visible, v.sources[i])
		}
	}
	if v.selected >= len(v.visible) {
		v.selected = max(len(v.visible)-1, 0)
	}
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(v.filterLabel()))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.visible) == 0:
		b.WriteString(v.styles.Muted.Render("No files indexed."))
	default:
		start, end := v.window()
		for i := start; i < end; i++ {
			b.WriteString(v.renderSource(i, &v.visible[i]))
			b.WriteString("\n")
		}
		if end-start < len(v.visible) {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d of %d", v.selected+1, len(v.visible))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) filterLabel() string {
	if v.kind == "" {
		return fmt.Sprintf("all kinds (%d)", len(v.visible))
	}
	return fmt.Sprintf("%s (%d)", v.kind.Description(), len(v.visible))
}

// window returns the visible slice of rows for the current height.
func (v *View) window() (int, int) {
	rows := max(v.height-8, 1)
	start := 0
	if v.selected >= rows {
		start = v.selected - rows + 1
	}
	return start, min(start+rows, len(v.visible))
}

// renderSource renders a single file line.
func (v *View) renderSource(index int, src *domain.SourceSummary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	kind := fmt.Sprintf("[%s]", src.Kind)
	name := src.Title
	if name == "" {
		name = domain.FileStem(src.File)
	}
	name = list.Truncate(name, max(v.width/2-14, 10))

	detail := fmt.Sprintf("%s  %d chunks", src.File, src.ChunkCount)
	if len(src.Tags) > 0 {
		detail += "  #" + strings.Join(src.Tags, " #")
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-11s %s", indicator, kind, name)) +
			"  " + v.styles.Muted.Render(detail)
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-11s ", kind)) +
		v.styles.Normal.Render(name) +
		"  " + v.styles.Muted.Render(detail)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] open  [f] filter  [r] reload  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sources returns every loaded file.
func (v *View) Sources() []domain.SourceSummary {
	return v.sources
}

// Visible returns the files passing the kind filter.
func (v *View) Visible() []domain.SourceSummary {
	return v.visible
}

// Kind returns the active kind filter, empty for all.
func (v *View) Kind() domain.SourceKind {
	return v.kind
}

// SelectedIndex returns the currently selected row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
