package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/memo"
	"github.com/custodia-labs/margin/internal/wikilink"
)

// Ensure LinkService implements the interface.
var _ driving.LinkService = (*LinkService)(nil)

// LinkService resolves wikilinks against the current snapshot.
type LinkService struct {
	corpus    driving.CorpusService
	resolvers *memo.Cache[string, *wikilink.Resolver]
}

// NewLinkService creates a link service.
func NewLinkService(corpus driving.CorpusService) *LinkService {
	return &LinkService{
		corpus:    corpus,
		resolvers: memo.New[string, *wikilink.Resolver](memo.WithLimit(2)),
	}
}

// Extract returns the raw wikilinks in text.
func (s *LinkService) Extract(text string) []string {
	return wikilink.Extract(text)
}

// Resolve maps link to a file of the current corpus.
func (s *LinkService) Resolve(ctx context.Context, link string) (domain.Resolution, error) {
	_, resolver, err := s.load(ctx)
	if err != nil {
		return domain.Resolution{}, err
	}
	return resolver.Resolve(link), nil
}

// References lists the links written in file, in order, each resolved.
// Links inside daily entries carry the entry as context.
func (s *LinkService) References(ctx context.Context, file string) ([]domain.LinkReference, error) {
	snap, resolver, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	note, ok := snap.Corpus.Note(file)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
	}
	return references(note, resolver), nil
}

// Backlinks lists links in other files that resolve to file, in scan order.
func (s *LinkService) Backlinks(ctx context.Context, file string) ([]domain.LinkReference, error) {
	snap, resolver, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Corpus.Note(file); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
	}

	out := []domain.LinkReference{}
	for i := range snap.Corpus.Notes {
		note := &snap.Corpus.Notes[i]
		if note.Path == file {
			continue
		}
		for _, ref := range references(note, resolver) {
			if ref.Resolution.File == file {
				out = append(out, ref)
			}
		}
	}
	return out, nil
}

// DailyEntries parses the entries of a daily note.
func (s *LinkService) DailyEntries(ctx context.Context, file string) ([]domain.DailyEntry, error) {
	snap, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	note, ok := snap.Corpus.Note(file)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
	}
	if !domain.IsDaily(file) {
		return nil, fmt.Errorf("%w: %s is not a daily note", domain.ErrInvalidInput, file)
	}
	return wikilink.ParseDaily(note.Body), nil
}

// load returns the current snapshot and its resolver, built once per snapshot.
func (s *LinkService) load(ctx context.Context) (*domain.Snapshot, *wikilink.Resolver, error) {
	snap, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}
	resolver, err := s.resolvers.Get(ctx, snap.ID, func(context.Context) (*wikilink.Resolver, error) {
		return wikilink.NewResolver(snap.Corpus.Notes), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, resolver, nil
}

func references(note *domain.Note, resolver *wikilink.Resolver) []domain.LinkReference {
	mentions := wikilink.Mentions(note.Body, domain.IsDaily(note.Path))
	refs := make([]domain.LinkReference, 0, len(mentions))
	for _, m := range mentions {
		refs = append(refs, domain.LinkReference{
			Source:     note.Path,
			Link:       m.Link,
			Resolution: resolver.Resolve(m.Link),
			Context:    m.Context,
		})
	}
	return refs
}
