package wikilink

import (
	"strings"

	"github.com/custodia-labs/margin/internal/core/domain"
)

type candidate struct {
	file  string
	stem  string
	title string
}

// Resolver matches links against the files of one corpus. It is immutable
// and safe for concurrent use.
type Resolver struct {
	candidates []candidate
}

// NewResolver indexes the distinct files of notes, keeping scan order.
// Notes without body text are candidates too.
func NewResolver(notes []domain.Note) *Resolver {
	seen := make(map[string]struct{})
	r := &Resolver{}
	for i := range notes {
		note := &notes[i]
		if _, ok := seen[note.Path]; ok {
			continue
		}
		seen[note.Path] = struct{}{}

		c := candidate{
			file: note.Path,
			stem: strings.ToLower(domain.FileStem(note.Path)),
		}
		if title, ok := note.Metadata.Title(); ok {
			c.title = strings.ToLower(title)
		}
		r.candidates = append(r.candidates, c)
	}
	return r
}

// Resolve maps link to a file. Comparison ignores case. An exact stem or
// metadata title match wins; otherwise the first file, in scan order,
// whose stem contains the link or is contained in it. A link that matches
// nothing resolves to StrategyUnresolved.
func (r *Resolver) Resolve(link string) domain.Resolution {
	res := domain.Resolution{Link: link, Strategy: domain.StrategyUnresolved}

	target := strings.ToLower(Target(link))
	if target == "" {
		return res
	}

	for _, c := range r.candidates {
		switch {
		case c.stem == target:
			res.File, res.Strategy = c.file, domain.StrategyExactStem
			return res
		case c.title != "" && c.title == target:
			res.File, res.Strategy = c.file, domain.StrategyExactTitle
			return res
		}
	}

	for _, c := range r.candidates {
		if c.stem == "" {
			continue
		}
		if strings.Contains(c.stem, target) || strings.Contains(target, c.stem) {
			res.File, res.Strategy = c.file, domain.StrategyFuzzy
			return res
		}
	}

	return res
}

// Files returns the number of distinct files the resolver knows.
func (r *Resolver) Files() int {
	return len(r.candidates)
}

// Resolve is a convenience for resolving a single link against notes.
func Resolve(link string, notes []domain.Note) domain.Resolution {
	return NewResolver(notes).Resolve(link)
}
