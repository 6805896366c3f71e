package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/logger"
	"github.com/custodia-labs/margin/internal/memo"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// memoLimit bounds how many corpora and indexes are held at once.
const memoLimit = 4

// CorpusService loads the notes root into snapshots. Corpora are memoised by
// root and file fingerprint, indexes by model and record batch, so an
// unchanged root is never re-read or re-encoded.
type CorpusService struct {
	source      driven.NoteSource
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	indexer     *Indexer
	cache       driven.EmbeddingCache

	corpora *memo.Cache[string, *domain.Corpus]
	indexes *memo.Cache[string, *domain.Index]
	current atomic.Pointer[domain.Snapshot]

	mu            sync.Mutex
	invalidations []func()

	now func() time.Time
}

// NewCorpusService creates a corpus service. cache may be nil.
func NewCorpusService(
	source driven.NoteSource,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	cache driven.EmbeddingCache,
) *CorpusService {
	return &CorpusService{
		source:      source,
		normalisers: normalisers,
		pipeline:    pipeline,
		indexer:     NewIndexer(embedder, cache),
		cache:       cache,
		corpora:     memo.New[string, *domain.Corpus](memo.WithLimit(memoLimit)),
		indexes:     memo.New[string, *domain.Index](memo.WithLimit(memoLimit)),
		now:         time.Now,
	}
}

// OnInvalidate registers fn to run whenever Invalidate is called, so memo
// caches held elsewhere (such as constructed encoders) are cleared together.
func (s *CorpusService) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidations = append(s.invalidations, fn)
}

// Embedder returns the encoder used for chunks, so queries use the same one.
func (s *CorpusService) Embedder() driven.EmbeddingService {
	return s.indexer.Embedder()
}

// Source returns the note source behind the corpus.
func (s *CorpusService) Source() driven.NoteSource {
	return s.source
}

// Load returns a snapshot of the notes root as it is now. If neither the
// files nor the encoder changed, the current snapshot is returned as is.
func (s *CorpusService) Load(ctx context.Context) (*domain.Snapshot, error) {
	logger.Section("Corpus Load")

	fingerprint, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", s.source.Root(), err)
	}
	logger.Debug("Root: %s, fingerprint: %.12s", s.source.Root(), fingerprint)

	corpusKey := memo.Fingerprint(s.source.Root(), fingerprint)
	corpus, err := s.corpora.Get(ctx, corpusKey, func(ctx context.Context) (*domain.Corpus, error) {
		return s.buildCorpus(ctx, fingerprint)
	})
	if err != nil {
		return nil, err
	}

	indexKey := memo.Fingerprint(s.indexer.Model(), BatchFingerprint(corpus.Records))
	index, err := s.indexes.Get(ctx, indexKey, func(ctx context.Context) (*domain.Index, error) {
		return s.indexer.Build(ctx, corpus.Records)
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if cur := s.current.Load(); cur != nil && cur.Corpus == corpus && cur.Index == index {
		logger.Debug("Corpus unchanged, keeping snapshot %s", cur.ID)
		return cur, nil
	}

	snap := &domain.Snapshot{
		ID:       uuid.New().String(),
		Corpus:   corpus,
		Index:    index,
		LoadedAt: s.now(),
	}
	s.current.Store(snap)
	logger.Info("Loaded %d chunks from %d files (%d warnings)",
		corpus.Len(), len(corpus.Files()), len(corpus.Warnings))
	return snap, nil
}

// Reload drops every cache and loads from scratch.
func (s *CorpusService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	if err := s.Invalidate(ctx); err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

// Current returns the last loaded snapshot, or nil.
func (s *CorpusService) Current() *domain.Snapshot {
	return s.current.Load()
}

// Invalidate clears memoised corpora, indexes, cached vectors and any
// registered external caches. The current snapshot stays readable until the
// next load replaces it.
func (s *CorpusService) Invalidate(ctx context.Context) error {
	logger.Debug("Invalidating corpus caches")
	s.corpora.Invalidate()
	s.indexes.Invalidate()

	s.mu.Lock()
	fns := append([]func(){}, s.invalidations...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			return fmt.Errorf("clear embedding cache: %w", err)
		}
	}
	return nil
}

// Watch loads on every change signal from the note source until ctx ends.
func (s *CorpusService) Watch(ctx context.Context, onLoad func(*domain.Snapshot, error)) error {
	changes, err := s.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.source.Root(), err)
	}
	logger.Info("Watching %s for changes", s.source.Root())

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			snap, loadErr := s.Load(ctx)
			if loadErr != nil && errors.Is(loadErr, context.Canceled) {
				return nil
			}
			if onLoad != nil {
				onLoad(snap, loadErr)
			}
		}
	}
}

// Snapshot returns the current snapshot, loading one if none exists yet.
func (s *CorpusService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if cur := s.current.Load(); cur != nil {
		return cur, nil
	}
	return s.Load(ctx)
}

// buildCorpus reads, normalises and chunks every file. Files that fail are
// recorded as warnings. Notes with blank bodies are kept without records.
func (s *CorpusService) buildCorpus(ctx context.Context, fingerprint string) (*domain.Corpus, error) {
	defer logger.Timed("Reading notes")()

	raws, warnings, err := s.source.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.source.Root(), err)
	}

	corpus := &domain.Corpus{
		Root:        s.source.Root(),
		Fingerprint: fingerprint,
		Notes:       make([]domain.Note, 0, len(raws)),
		Records:     []domain.ChunkRecord{},
		Warnings:    warnings,
	}

	for i := range raws {
		raw := &raws[i]
		note, err := s.normalisers.Normalise(ctx, raw)
		if err != nil {
			logger.Warn("Skipping %s: %v", raw.Path, err)
			corpus.Warnings = append(corpus.Warnings, domain.LoadWarning{File: raw.Path, Err: err})
			continue
		}

		records, err := s.pipeline.Process(ctx, note)
		if err != nil {
			logger.Warn("Skipping %s: %v", raw.Path, err)
			corpus.Warnings = append(corpus.Warnings, domain.LoadWarning{File: raw.Path, Err: err})
			continue
		}

		corpus.Notes = append(corpus.Notes, *note)
		if len(records) == 0 {
			logger.Debug("%s has no body text", raw.Path)
			continue
		}
		corpus.Records = append(corpus.Records, records...)
	}

	return corpus, nil
}
