// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/margin/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// SuggestionsLoaded carries search suggestions drawn from titles and headings.
type SuggestionsLoaded struct {
	Suggestions []string
	Err         error
}

// AnswerReceived carries one chat turn back to the model.
type AnswerReceived struct {
	Session domain.Session
	Answer  *domain.Answer
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewChat is the conversational view.
	ViewChat
	// ViewSources lists indexed files by kind.
	ViewSources
	// ViewNote shows the content and links of one file.
	ViewNote
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewChat:
		return "chat"
	case ViewSources:
		return "sources"
	case ViewNote:
		return "note"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SourcesLoaded carries the indexed files.
type SourcesLoaded struct {
	Sources []domain.SourceSummary
	Err     error
}

// FileSelected opens a file in the note view. Back is where esc returns to.
type FileSelected struct {
	File string
	Back ViewType
}

// NoteLoaded carries the content, outgoing links and backlinks of a file.
type NoteLoaded struct {
	File      string
	Content   string
	Links     []domain.LinkReference
	Backlinks []domain.LinkReference
	Err       error
}

// CorpusReloaded signals the notes directory was re-indexed.
type CorpusReloaded struct {
	Chunks int
	Files  int
	Err    error
}
