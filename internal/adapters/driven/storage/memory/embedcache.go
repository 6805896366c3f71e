package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache keeps encoder output for the life of the process.
// Vectors are copied in and out so callers cannot alias cached data.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string]map[string][]float32 // model -> hash -> vector
}

// NewEmbeddingCache creates an empty in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		vectors: make(map[string]map[string][]float32),
	}
}

// Get returns the cached vectors among hashes for model.
func (c *EmbeddingCache) Get(_ context.Context, model string, hashes []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]float32)
	byHash := c.vectors[model]
	for _, h := range hashes {
		if vec, ok := byHash[h]; ok {
			out[h] = append([]float32(nil), vec...)
		}
	}
	return out, nil
}

// Put stores vectors for model.
func (c *EmbeddingCache) Put(_ context.Context, model string, vectors map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byHash, ok := c.vectors[model]
	if !ok {
		byHash = make(map[string][]float32, len(vectors))
		c.vectors[model] = byHash
	}
	for h, vec := range vectors {
		byHash[h] = append([]float32(nil), vec...)
	}
	return nil
}

// Clear drops every cached vector.
func (c *EmbeddingCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = make(map[string]map[string][]float32)
	return nil
}

// Len returns the number of cached vectors across all models.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, byHash := range c.vectors {
		n += len(byHash)
	}
	return n
}

// Close is a no-op.
func (c *EmbeddingCache) Close() error {
	return nil
}
