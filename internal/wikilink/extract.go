// Package wikilink extracts [[wikilinks]] from note text, resolves them to
// files of a corpus and parses the timestamped entries of daily notes.
package wikilink

import (
	"regexp"
	"strings"
)

// linkPattern matches one [[...]] span. Brackets and newlines may not occur
// inside, so nested spans yield only the innermost link.
var linkPattern = regexp.MustCompile(`\[\[([^\[\]\n]+?)\]\]`)

// Extract returns the raw text of every wikilink in text, in order of
// appearance. Duplicates are kept and nothing is normalised.
func Extract(text string) []string {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m[1])
	}
	return links
}

// Target returns the part of a link that names a file: the text before any
// "|alias" or "#heading" suffix, trimmed.
func Target(link string) string {
	if i := strings.IndexAny(link, "|#"); i >= 0 {
		link = link[:i]
	}
	return strings.TrimSpace(link)
}
