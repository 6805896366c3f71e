// Package note provides the note viewer for the TUI: the file text followed
// by its wikilinks and backlinks.
package note

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// ErrNoSourceService indicates that no source service was provided.
var ErrNoSourceService = errors.New("source service not available")

// View shows one file. Tab moves focus between the text and the link list.
type View struct {
	styles        *styles.Styles
	sourceService driving.SourceService
	linkService   driving.LinkService
	ctx           context.Context

	file      string
	back      messages.ViewType
	content   string
	lines     []string
	links     []domain.LinkReference
	backlinks []domain.LinkReference

	scrollOffset int
	linkFocus    bool
	selectedLink int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new note view. linkService may be nil.
func NewView(s *styles.Styles, sourceService driving.SourceService, linkService driving.LinkService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		sourceService: sourceService,
		linkService:   linkService,
		ctx:           context.Background(),
		back:          messages.ViewMenu,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetFile resets the view to file and returns the command that loads it.
// back is the view esc returns to.
func (v *View) SetFile(file string, back messages.ViewType) tea.Cmd {
	v.file = file
	v.back = back
	v.content = ""
	v.lines = nil
	v.links = nil
	v.backlinks = nil
	v.scrollOffset = 0
	v.linkFocus = false
	v.selectedLink = 0
	v.err = nil
	v.loading = true
	return v.loadNote(file)
}

// loadNote reads the text, then the links when a link service is present.
func (v *View) loadNote(file string) tea.Cmd {
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.NoteLoaded{File: file, Err: ErrNoSourceService}
		}

		content, err := v.sourceService.Content(v.ctx, file)
		if err != nil {
			return messages.NoteLoaded{File: file, Err: err}
		}

		msg := messages.NoteLoaded{File: file, Content: content}
		if v.linkService == nil {
			return msg
		}
		if msg.Links, err = v.linkService.References(v.ctx, file); err != nil {
			msg.Err = fmt.Errorf("links: %w", err)
			return msg
		}
		if msg.Backlinks, err = v.linkService.Backlinks(v.ctx, file); err != nil {
			msg.Err = fmt.Errorf("backlinks: %w", err)
		}
		return msg
	}
}

// Update handles messages for the note view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.NoteLoaded:
		if msg.File != v.file {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.content = msg.Content
		v.links = msg.Links
		v.backlinks = msg.Backlinks
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	case "tab":
		if len(v.allLinks()) > 0 {
			v.linkFocus = !v.linkFocus
		}
		return v, nil
	}

	if v.linkFocus {
		return v.handleLinkKey(msg)
	}

	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	}

	return v, nil
}

func (v *View) handleLinkKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	all := v.allLinks()
	switch msg.String() {
	case "up", "k":
		if v.selectedLink > 0 {
			v.selectedLink--
		}
	case "down", "j":
		if v.selectedLink < len(all)-1 {
			v.selectedLink++
		}
	case "enter":
		if v.selectedLink >= len(all) {
			return v, nil
		}
		target := v.targetOf(all[v.selectedLink])
		if target == "" {
			return v, nil
		}
		back := v.back
		return v, func() tea.Msg {
			return messages.FileSelected{File: target, Back: back}
		}
	}
	return v, nil
}

// allLinks is the outgoing links followed by the backlinks.
func (v *View) allLinks() []domain.LinkReference {
	all := make([]domain.LinkReference, 0, len(v.links)+len(v.backlinks))
	all = append(all, v.links...)
	return append(all, v.backlinks...)
}

// targetOf returns the file a link row opens: the resolved file for outgoing
// links and the linking file for backlinks.
func (v *View) targetOf(ref domain.LinkReference) string {
	if ref.Source != v.file {
		return ref.Source
	}
	return ref.Resolution.File
}

// wrapContent wraps the content to fit the view width.
func (v *View) wrapContent() {
	if v.content == "" {
		v.lines = nil
		return
	}

	contentWidth := max(v.width-4, 20)
	raw := strings.Split(v.content, "\n")
	v.lines = make([]string, 0, len(raw))
	for _, line := range raw {
		v.lines = append(v.lines, strings.Split(ansi.Wrap(line, contentWidth, ""), "\n")...)
	}
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// visibleLines returns the number of text lines that fit above the links.
func (v *View) visibleLines() int {
	reserved := 7 + min(len(v.allLinks()), v.height/3) + 2
	return max(v.height-reserved, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the note view.
func (v *View) View() string {
	var b strings.Builder

	title := v.file
	if title == "" {
		title = "Note"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading note..."))
	case v.err != nil && v.content == "":
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		v.renderContent(&b)
	}

	if !v.loading {
		v.renderLinks(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderContent(b *strings.Builder) {
	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.lines)),
			len(v.lines))))
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(v.err.Error()))
		b.WriteString("\n")
	}
}

func (v *View) renderLinks(b *strings.Builder) {
	if len(v.links) == 0 && len(v.backlinks) == 0 {
		return
	}

	row := 0
	if len(v.links) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Links (%d)", len(v.links))))
		b.WriteString("\n")
		for i := range v.links {
			b.WriteString(v.renderLinkRow(row, &v.links[i], false))
			row++
		}
	}
	if len(v.backlinks) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Backlinks (%d)", len(v.backlinks))))
		b.WriteString("\n")
		for i := range v.backlinks {
			b.WriteString(v.renderLinkRow(row, &v.backlinks[i], true))
			row++
		}
	}
}

func (v *View) renderLinkRow(row int, ref *domain.LinkReference, backlink bool) string {
	indicator := "  "
	if v.linkFocus && row == v.selectedLink {
		indicator = "> "
	}

	var line string
	switch {
	case backlink:
		line = v.styles.Link.Render(ref.Source)
	case ref.Resolution.Resolved():
		line = v.styles.Link.Render("[["+ref.Link+"]]") +
			v.styles.Muted.Render(" -> "+ref.Resolution.File)
	default:
		line = v.styles.Unresolved.Render("[[" + ref.Link + "]]")
	}

	if ref.Context != nil {
		line += v.styles.Citation.Render(fmt.Sprintf("  %s %s", ref.Context.Timestamp, ref.Context.Description))
	}
	return indicator + line + "\n"
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.linkFocus {
		return v.styles.Help.Render("[↑/↓] select  [enter] open  [tab] text  [esc] back")
	}
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [tab] links  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// File returns the file being shown.
func (v *View) File() string {
	return v.file
}

// Content returns the file content.
func (v *View) Content() string {
	return v.content
}

// Links returns the outgoing links of the file.
func (v *View) Links() []domain.LinkReference {
	return v.links
}

// Backlinks returns links in other files that resolve to this one.
func (v *View) Backlinks() []domain.LinkReference {
	return v.backlinks
}

// LinkFocus reports whether the link list has focus.
func (v *View) LinkFocus() bool {
	return v.linkFocus
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
