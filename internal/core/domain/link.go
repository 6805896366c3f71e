package domain

// ResolveStrategy records which rule matched a wikilink to a file.
type ResolveStrategy string

// Resolution strategies, in the order they are tried.
const (
	StrategyExactStem  ResolveStrategy = "exact_stem"
	StrategyExactTitle ResolveStrategy = "exact_title"
	StrategyFuzzy      ResolveStrategy = "fuzzy"
	StrategyUnresolved ResolveStrategy = "unresolved"
)

// Resolution is the outcome of resolving one wikilink. An unresolved link
// is an ordinary outcome, not an error.
type Resolution struct {
	Link     string          `json:"link"`
	File     string          `json:"file,omitempty"`
	Strategy ResolveStrategy `json:"strategy"`
}

// Resolved reports whether the link matched a file.
func (r Resolution) Resolved() bool {
	return r.Strategy != StrategyUnresolved && r.File != ""
}

// EntryContext is the daily-note entry a wikilink was written in.
type EntryContext struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Area        string `json:"area,omitempty"`
	Date        string `json:"date,omitempty"`
	Text        string `json:"text"`
}

// DailyEntry is one timestamped entry of a daily note.
type DailyEntry struct {
	EntryContext

	// Line is the 1-based line of the timestamp within the parsed text.
	Line int `json:"line"`

	// Links are the raw wikilinks inside the entry, in order.
	Links []string `json:"links,omitempty"`
}

// Context returns a copy of the entry's context for attaching to links.
func (e DailyEntry) Context() *EntryContext {
	ctx := e.EntryContext
	return &ctx
}

// LinkReference is a wikilink found in a file, together with where it
// points and, for daily notes, the entry it was written in.
type LinkReference struct {
	// Source is the file containing the link.
	Source     string        `json:"source"`
	Link       string        `json:"link"`
	Resolution Resolution    `json:"resolution"`
	Context    *EntryContext `json:"context,omitempty"`
}
