package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// headerDelimiter opens and closes a rendered header block.
const headerDelimiter = "---"

// SourceService browses the files behind the current snapshot.
type SourceService struct {
	corpus      driving.CorpusService
	source      driven.NoteSource
	normalisers driven.NormaliserRegistry
}

// NewSourceService creates a source browser.
func NewSourceService(
	corpus driving.CorpusService,
	source driven.NoteSource,
	normalisers driven.NormaliserRegistry,
) *SourceService {
	return &SourceService{
		corpus:      corpus,
		source:      source,
		normalisers: normalisers,
	}
}

// List returns one summary per file in scan order.
func (s *SourceService) List(ctx context.Context, filter string) ([]domain.SourceSummary, error) {
	snap, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return Summaries(snap.Corpus, filter), nil
}

// Grouped returns List results keyed by kind. Every kind is present.
func (s *SourceService) Grouped(
	ctx context.Context, filter string,
) (map[domain.SourceKind][]domain.SourceSummary, error) {
	summaries, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	groups := make(map[domain.SourceKind][]domain.SourceSummary, len(domain.SourceKinds()))
	for _, k := range domain.SourceKinds() {
		groups[k] = []domain.SourceSummary{}
	}
	for _, sum := range summaries {
		groups[sum.Kind] = append(groups[sum.Kind], sum)
	}
	return groups, nil
}

// Stats returns size statistics for one file.
func (s *SourceService) Stats(ctx context.Context, file string) (*domain.FileStats, error) {
	records, err := s.Chunks(ctx, file)
	if err != nil {
		return nil, err
	}
	stats := FileStatsOf(records)
	return &stats, nil
}

// Chunks returns the records of one file in chunk order. A file with a
// blank body has none.
func (s *SourceService) Chunks(ctx context.Context, file string) ([]domain.ChunkRecord, error) {
	snap, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	records := snap.Corpus.RecordsFor(file)
	if len(records) == 0 {
		if _, ok := snap.Corpus.Note(file); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
		}
		return []domain.ChunkRecord{}, nil
	}
	return records, nil
}

// Content reads a file from disk. A parsed header is rendered back as
// "key: value" lines above the body; files without one are returned as is.
func (s *SourceService) Content(ctx context.Context, file string) (string, error) {
	raw, err := s.source.Read(ctx, file)
	if err != nil {
		return "", err
	}
	note, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return RenderNote(note.Metadata, note.Body), nil
}

// Summaries aggregates records per file of corpus. A file whose body is
// blank is listed with no chunks. A non-empty filter keeps files whose
// path, title or any tag contains it, ignoring case.
func Summaries(corpus *domain.Corpus, filter string) []domain.SourceSummary {
	filter = strings.ToLower(strings.TrimSpace(filter))
	files := corpus.Files()

	out := make([]domain.SourceSummary, 0, len(files))
	for _, f := range files {
		recs := corpus.RecordsFor(f)
		sum := domain.SourceSummary{
			File:       f,
			Kind:       domain.Classify(f),
			ChunkCount: len(recs),
			Stats:      FileStatsOf(recs),
		}
		switch note, ok := corpus.Note(f); {
		case ok:
			sum.Title, sum.Metadata = note.Title, note.Metadata
		case len(recs) > 0:
			sum.Title, sum.Metadata = recs[0].Title, recs[0].Metadata
		}
		if sum.Metadata == nil {
			sum.Metadata = domain.Metadata{}
		}
		sum.Tags = sum.Metadata.Tags()
		if sum.Tags == nil {
			sum.Tags = []string{}
		}
		if filter != "" && !matchesFilter(sum, filter) {
			continue
		}
		out = append(out, sum)
	}
	return out
}

func matchesFilter(sum domain.SourceSummary, filter string) bool {
	if strings.Contains(strings.ToLower(sum.File), filter) ||
		strings.Contains(strings.ToLower(sum.Title), filter) {
		return true
	}
	for _, t := range sum.Tags {
		if strings.Contains(strings.ToLower(t), filter) {
			return true
		}
	}
	return false
}

// FileStatsOf computes statistics over chunk contents. Characters are
// counted as runes and words as whitespace-separated fields.
func FileStatsOf(records []domain.ChunkRecord) domain.FileStats {
	stats := domain.FileStats{Chunks: len(records)}
	for i := range records {
		stats.Characters += utf8.RuneCountInString(records[i].Content)
		stats.Words += len(strings.Fields(records[i].Content))
	}
	if stats.Chunks > 0 {
		stats.AvgChunkSize = stats.Characters / stats.Chunks
	}
	return stats
}

// RenderNote writes metadata back as a header block followed by body.
// Without metadata the body is returned unchanged.
func RenderNote(meta domain.Metadata, body string) string {
	if len(meta) == 0 {
		return body
	}
	var sb strings.Builder
	sb.WriteString(headerDelimiter + "\n")
	for _, key := range meta.Keys() {
		fmt.Fprintf(&sb, "%s: %s\n", key, domain.FormatValue(meta[key]))
	}
	sb.WriteString(headerDelimiter + "\n\n")
	sb.WriteString(body)
	return sb.String()
}
