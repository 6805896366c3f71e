package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/core/domain"
)

func records(contents ...string) []domain.ChunkRecord {
	out := make([]domain.ChunkRecord, len(contents))
	for i, c := range contents {
		out[i] = domain.ChunkRecord{File: "f.md", ChunkIndex: i, Content: c}
	}
	return out
}

func TestIndexer_Build(t *testing.T) {
	embedder := &mockEmbeddingService{}
	ix := NewIndexer(embedder, nil)

	recs := records("cats", "dogs and cats")
	idx, err := ix.Build(context.Background(), recs)
	require.NoError(t, err)

	assert.Equal(t, "mock-embed", idx.Model)
	assert.Equal(t, len(testVocabulary), idx.Dimensions)
	require.Len(t, idx.Vectors, 2)
	assert.Equal(t, recs, idx.Records)
	assert.Equal(t, float32(1), idx.Vectors[1][1])
}

func TestIndexer_Build_EmptyNeedsNoEncoder(t *testing.T) {
	idx, err := NewIndexer(nil, nil).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, idx.Empty())
	assert.Equal(t, 0, idx.Dimensions)
}

func TestIndexer_Build_NoEncoder(t *testing.T) {
	_, err := NewIndexer(nil, nil).Build(context.Background(), records("cats"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexer_Build_EncoderError(t *testing.T) {
	ix := NewIndexer(&mockEmbeddingService{embedErr: errBoom}, nil)
	_, err := ix.Build(context.Background(), records("cats"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, errBoom)
}

func TestIndexer_Build_EncodesDuplicatesOnce(t *testing.T) {
	embedder := &mockEmbeddingService{}
	idx, err := NewIndexer(embedder, nil).Build(context.Background(), records("cats", "cats", "dogs"))
	require.NoError(t, err)

	require.Equal(t, 1, embedder.batchCount())
	assert.Equal(t, []string{"cats", "dogs"}, embedder.batches[0])
	assert.Len(t, idx.Vectors, 3)
	assert.Equal(t, idx.Vectors[0], idx.Vectors[1])
}

func TestIndexer_Build_UsesCache(t *testing.T) {
	cache := newMockEmbeddingCache()
	embedder := &mockEmbeddingService{}
	ix := NewIndexer(embedder, cache)
	ctx := context.Background()

	_, err := ix.Build(ctx, records("cats", "dogs"))
	require.NoError(t, err)
	require.Equal(t, 1, embedder.batchCount())

	_, err = ix.Build(ctx, records("cats", "dogs", "garden"))
	require.NoError(t, err)
	require.Equal(t, 2, embedder.batchCount())
	assert.Equal(t, []string{"garden"}, embedder.batches[1])
}

func TestIndexer_Build_CacheReadFailureFallsBack(t *testing.T) {
	cache := newMockEmbeddingCache()
	cache.getErr = errBoom
	embedder := &mockEmbeddingService{}

	idx, err := NewIndexer(embedder, cache).Build(context.Background(), records("cats"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestIndexer_Build_ZeroLengthVector(t *testing.T) {
	ix := NewIndexer(&zeroEmbedder{mockEmbeddingService: &mockEmbeddingService{}}, nil)
	_, err := ix.Build(context.Background(), records("cats"))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

// zeroEmbedder returns empty vectors.
type zeroEmbedder struct {
	*mockEmbeddingService
}

func (z *zeroEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("a"), ContentHash("a"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestBatchFingerprint(t *testing.T) {
	a := records("x", "y")
	b := records("x", "y")
	assert.Equal(t, BatchFingerprint(a), BatchFingerprint(b))

	b[1].Content = "z"
	assert.NotEqual(t, BatchFingerprint(a), BatchFingerprint(b))
}
