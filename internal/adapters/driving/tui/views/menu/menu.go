// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool // If true, selecting this item quits the app
	// Disabled items are shown with the reason and cannot be selected.
	Disabled string
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	summary  string
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items: []Item{
			{Label: "Search", Hint: "find passages by meaning", View: messages.ViewSearch},
			{Label: "Chat", Hint: "ask questions about your notes", View: messages.ViewChat},
			{Label: "Sources", Hint: "browse indexed files", View: messages.ViewSources},
			{Label: "Help", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			item := v.items[v.selected]
			if item.Disabled != "" {
				return v, nil
			}
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}

		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("margin"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Search and question your notes"))
	b.WriteString("\n")
	if v.summary != "" {
		b.WriteString(v.styles.Muted.Render(v.summary))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range v.items {
		cursor := "  "
		style := v.styles.Normal
		if i == v.selected {
			cursor = "> "
			style = v.styles.Subtitle
		}

		b.WriteString(cursor)
		switch {
		case item.Disabled != "":
			b.WriteString(v.styles.Muted.Render(item.Label + "  (" + item.Disabled + ")"))
		case item.Hint != "":
			b.WriteString(style.Render(item.Label))
			b.WriteString(v.styles.Muted.Render("  " + item.Hint))
		default:
			b.WriteString(style.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// SetSummary sets the line describing the loaded corpus.
func (v *View) SetSummary(summary string) {
	v.summary = summary
}

// Disable marks the item that opens view as unavailable.
func (v *View) Disable(view messages.ViewType, reason string) {
	for i := range v.items {
		if !v.items[i].Quit && v.items[i].View == view {
			v.items[i].Disabled = reason
		}
	}
}
