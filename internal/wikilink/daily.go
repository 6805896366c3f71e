package wikilink

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/margin/internal/core/domain"
)

var (
	timestampPattern  = regexp.MustCompile(`^\s*(\d{2}:\d{2})\s+(.*)$`)
	annotationPattern = regexp.MustCompile(`^\s*(?i:(status|area|date))::\s*(.*)$`)
)

// entrySeparator is a line that closes the current entry.
const entrySeparator = "---"

// ParseDaily splits a daily note into timestamped entries. An entry opens at
// a line starting with "HH:MM " and runs until the next such line or a line
// that is exactly "---". Lines before the first timestamp belong to no entry.
func ParseDaily(body string) []domain.DailyEntry {
	spans := parseSpans(body)
	entries := make([]domain.DailyEntry, 0, len(spans))
	for _, s := range spans {
		entries = append(entries, s.entry)
	}
	return entries
}

// Mention is one wikilink occurrence with the daily entry it was written in.
type Mention struct {
	Link    string
	Line    int
	Context *domain.EntryContext
}

// Mentions returns every link in body in order. When daily is set, links
// inside an entry carry that entry as context.
func Mentions(body string, daily bool) []Mention {
	var spans []span
	if daily {
		spans = parseSpans(body)
	}

	var out []Mention
	next := 0
	for i, line := range strings.Split(body, "\n") {
		lineNo := i + 1
		links := Extract(line)
		if len(links) == 0 {
			continue
		}

		var ctx *domain.EntryContext
		for next < len(spans) && spans[next].end < lineNo {
			next++
		}
		if next < len(spans) && spans[next].entry.Line <= lineNo {
			ctx = spans[next].entry.Context()
		}

		for _, l := range links {
			out = append(out, Mention{Link: l, Line: lineNo, Context: ctx})
		}
	}
	return out
}

// span is an entry and the last line, inclusive, that belongs to it.
type span struct {
	entry domain.DailyEntry
	end   int
}

func parseSpans(body string) []span {
	var spans []span
	var cur *span
	var text []string

	closeEntry := func(end int) {
		if cur == nil {
			return
		}
		cur.end = end
		cur.entry.Text = strings.TrimSpace(strings.Join(text, "\n"))
		spans = append(spans, *cur)
		cur, text = nil, nil
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lineNo := i + 1

		if m := timestampPattern.FindStringSubmatch(line); m != nil {
			closeEntry(lineNo - 1)
			cur = &span{entry: domain.DailyEntry{
				EntryContext: domain.EntryContext{
					Timestamp:   m[1],
					Description: strings.TrimSpace(m[2]),
				},
				Line: lineNo,
			}}
			text = []string{line}
			cur.entry.Links = append(cur.entry.Links, Extract(line)...)
			continue
		}
		if cur == nil {
			continue
		}
		if strings.TrimSpace(line) == entrySeparator {
			closeEntry(lineNo - 1)
			continue
		}

		text = append(text, line)
		cur.entry.Links = append(cur.entry.Links, Extract(line)...)
		if m := annotationPattern.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "status":
				cur.entry.Status = value
			case "area":
				cur.entry.Area = value
			case "date":
				cur.entry.Date = value
			}
		}
	}
	closeEntry(len(lines))
	return spans
}
