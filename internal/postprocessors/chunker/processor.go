// Package chunker splits note bodies into paragraph-aligned chunks.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// DefaultMaxLength is the default soft cap on chunk length, in characters.
const DefaultMaxLength = 1000

// segmentSeparator joins segments that share a chunk.
const segmentSeparator = "\n\n"

// Processor turns a note into chunk records.
// It implements the PostProcessor interface.
type Processor struct {
	maxLength int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxLength sets the soft cap in characters. Non-positive values are ignored.
func WithMaxLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxLength returns the configured soft cap.
func (p *Processor) MaxLength() int {
	return p.maxLength
}

// Process chunks the note body. Input records are ignored; a note with a
// blank body produces no records.
func (p *Processor) Process(_ context.Context, note *domain.Note, _ []domain.ChunkRecord) ([]domain.ChunkRecord, error) {
	if strings.TrimSpace(note.Body) == "" {
		return nil, nil
	}

	texts := Chunk(note.Body, p.maxLength)
	records := make([]domain.ChunkRecord, 0, len(texts))
	for i, text := range texts {
		records = append(records, domain.ChunkRecord{
			File:       note.Path,
			Title:      note.Title,
			Content:    text,
			ChunkIndex: i,
			Metadata:   note.Metadata,
		})
	}
	return records, nil
}

// Chunk splits text on blank lines and before Markdown headings, then packs
// consecutive segments into chunks of at most maxLength characters. A chunk
// only exceeds maxLength when a single segment does. When a chunk is closed,
// its last sentence is carried into the next one if it fits.
//
// Text without any non-blank segment is returned unchanged as the only chunk.
func Chunk(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var chunks []string
	var buf string

	for _, seg := range segments(text) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if buf == "" {
			buf = seg
			continue
		}
		if length(buf)+len(segmentSeparator)+length(seg) > maxLength {
			chunks = append(chunks, strings.TrimSpace(buf))
			buf = carryOver(buf, seg, maxLength)
			continue
		}
		buf += segmentSeparator + seg
	}

	if strings.TrimSpace(buf) != "" {
		chunks = append(chunks, strings.TrimSpace(buf))
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// segments splits at blank (whitespace-only) lines and before heading lines.
// Headings stay at the start of the segment they open.
func segments(text string) []string {
	lines := strings.Split(text, "\n")
	var segs []string
	var cur []string

	flush := func() {
		if len(cur) > 0 {
			segs = append(segs, strings.Join(cur, "\n"))
			cur = nil
		}
	}

	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case isHeading(line, i == len(lines)-1):
			flush()
			cur = append(cur, line)
		default:
			cur = append(cur, line)
		}
	}
	flush()
	return segs
}

// isHeading reports whether line starts with one to six '#' followed by
// whitespace. A bare run of '#' counts when a newline follows it.
func isHeading(line string, last bool) bool {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return false
	}
	rest := line[n:]
	if rest == "" {
		return !last
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r)
}

// carryOver seeds the next chunk with the closed chunk's last sentence,
// or with seg alone when there is no sentence boundary or the seed would
// overflow maxLength.
func carryOver(closed, seg string, maxLength int) string {
	sentence := lastSentence(closed)
	if sentence == "" {
		return seg
	}
	seeded := sentence + ". " + seg
	if length(seeded) > maxLength {
		return seg
	}
	return seeded
}

// lastSentence returns the text after the final '.', or, when the text ends
// with a full stop, the sentence that full stop closes.
func lastSentence(text string) string {
	text = strings.TrimSpace(text)
	i := strings.LastIndex(text, ".")
	if i < 0 {
		return ""
	}
	if tail := strings.TrimSpace(text[i+1:]); tail != "" {
		return tail
	}
	head := text[:i]
	j := strings.LastIndex(head, ".")
	return strings.TrimSpace(head[j+1:])
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
