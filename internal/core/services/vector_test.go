package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/core/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_Bounded(t *testing.T) {
	a := []float32{0.3, -1.7, 2.2, 0.01}
	b := []float32{-0.4, 0.9, 1.1, 5}
	got := CosineSimilarity(a, b)
	assert.False(t, math.IsNaN(got))
	assert.LessOrEqual(t, got, 1.0)
	assert.GreaterOrEqual(t, got, -1.0)
}

func testIndex(vectors ...[]float32) *domain.Index {
	idx := &domain.Index{Model: "m", Dimensions: len(vectors[0])}
	for i, v := range vectors {
		idx.Vectors = append(idx.Vectors, v)
		idx.Records = append(idx.Records, domain.ChunkRecord{File: string(rune('a' + i)), ChunkIndex: 0})
	}
	return idx
}

func TestRank_OrdersBySimilarity(t *testing.T) {
	idx := testIndex(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 1},
	)

	results := Rank([]float32{1, 0}, idx, 5)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].File)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, "c", results[1].File)
}

func TestRank_TiesKeepIndexOrder(t *testing.T) {
	idx := testIndex(
		[]float32{1, 0},
		[]float32{2, 0},
		[]float32{3, 0},
	)

	results := Rank([]float32{1, 0}, idx, 3)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].File, results[1].File, results[2].File})
}

func TestRank_TopKBeforeFloor(t *testing.T) {
	// cos = 0.05 for the second vector, below the floor.
	idx := testIndex(
		[]float32{1, 0},
		[]float32{0.05, 0.99875},
	)

	results := Rank([]float32{1, 0}, idx, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].File)

	results = Rank([]float32{1, 0}, idx, 2)
	assert.Len(t, results, 1, "results at or below the floor are dropped")
}

func TestRank_FloorIsExclusive(t *testing.T) {
	idx := testIndex([]float32{0.1, float32(math.Sqrt(1 - 0.01))})
	results := Rank([]float32{1, 0}, idx, 1)
	for _, r := range results {
		assert.Greater(t, r.Similarity, domain.SimilarityFloor)
	}
}

func TestRank_EmptyAndZeroTopK(t *testing.T) {
	assert.Empty(t, Rank([]float32{1}, &domain.Index{}, 5))
	assert.Empty(t, Rank([]float32{1, 0}, testIndex([]float32{1, 0}), 0))
}
