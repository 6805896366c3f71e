package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/logger"
)

// Indexer encodes chunk records into an in-memory index. When an
// EmbeddingCache is set, previously encoded texts are not sent to the
// encoder again.
type Indexer struct {
	embedder driven.EmbeddingService
	cache    driven.EmbeddingCache
}

// NewIndexer creates an indexer. cache may be nil.
func NewIndexer(embedder driven.EmbeddingService, cache driven.EmbeddingCache) *Indexer {
	return &Indexer{embedder: embedder, cache: cache}
}

// Model returns the encoder model name, or "" without an encoder.
func (ix *Indexer) Model() string {
	if ix.embedder == nil {
		return ""
	}
	return ix.embedder.ModelName()
}

// Embedder returns the encoder used for chunks and queries.
func (ix *Indexer) Embedder() driven.EmbeddingService {
	return ix.embedder
}

// Build encodes every record, in order. An empty batch needs no encoder.
func (ix *Indexer) Build(ctx context.Context, records []domain.ChunkRecord) (*domain.Index, error) {
	if len(records) == 0 {
		return &domain.Index{Model: ix.Model(), Vectors: [][]float32{}, Records: records}, nil
	}
	if ix.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	defer logger.Timed(fmt.Sprintf("Indexing %d chunks", len(records)))()

	model := ix.embedder.ModelName()
	hashes := make([]string, len(records))
	for i := range records {
		hashes[i] = ContentHash(records[i].Content)
	}

	known := map[string][]float32{}
	if ix.cache != nil {
		cached, err := ix.cache.Get(ctx, model, hashes)
		if err != nil {
			logger.Warn("Embedding cache read failed: %v", err)
		} else if cached != nil {
			known = cached
		}
	}

	// Encode each distinct uncached text once.
	var pending []string
	var pendingHashes []string
	queued := make(map[string]struct{})
	for i, h := range hashes {
		if _, ok := known[h]; ok {
			continue
		}
		if _, ok := queued[h]; ok {
			continue
		}
		queued[h] = struct{}{}
		pending = append(pending, records[i].Content)
		pendingHashes = append(pendingHashes, h)
	}
	logger.Debug("Embedding cache: %d hits, %d to encode", len(records)-len(pending), len(pending))

	if len(pending) > 0 {
		vectors, err := ix.embedder.EmbedBatch(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vectors) != len(pending) {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vectors), len(pending))
		}
		fresh := make(map[string][]float32, len(vectors))
		for i, v := range vectors {
			fresh[pendingHashes[i]] = v
			known[pendingHashes[i]] = v
		}
		if ix.cache != nil {
			if err := ix.cache.Put(ctx, model, fresh); err != nil {
				logger.Warn("Embedding cache write failed: %v", err)
			}
		}
	}

	idx := &domain.Index{
		Model:   model,
		Vectors: make([][]float32, len(records)),
		Records: records,
	}
	for i, h := range hashes {
		v := known[h]
		if idx.Dimensions == 0 {
			idx.Dimensions = len(v)
		}
		if len(v) == 0 || len(v) != idx.Dimensions {
			return nil, fmt.Errorf("%w: %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, records[i].File, len(v), idx.Dimensions)
		}
		idx.Vectors[i] = v
	}
	return idx, nil
}

// ContentHash identifies chunk text for embedding reuse.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// BatchFingerprint identifies a record batch by file, position and content.
func BatchFingerprint(records []domain.ChunkRecord) string {
	h := sha256.New()
	for i := range records {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", records[i].File, records[i].ChunkIndex, records[i].Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
