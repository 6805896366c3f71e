package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b,
// accumulated in float64. Vectors of different length or zero magnitude
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every indexed chunk against query, keeps the topK best and
// then drops any at or below domain.SimilarityFloor. Equal scores keep index
// order. Results copy the chunk records.
func Rank(query []float32, idx *domain.Index, topK int) []domain.SearchResult {
	if idx.Empty() || topK <= 0 {
		return []domain.SearchResult{}
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(idx.Vectors))
	for i, v := range idx.Vectors {
		scores[i] = scored{pos: i, score: CosineSimilarity(query, v)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if len(scores) > topK {
		scores = scores[:topK]
	}

	results := make([]domain.SearchResult, 0, len(scores))
	for _, s := range scores {
		if s.score <= domain.SimilarityFloor {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkRecord: idx.Records[s.pos],
			Similarity:  s.score,
		})
	}
	return results
}
