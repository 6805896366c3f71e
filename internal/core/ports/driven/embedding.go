package driven

import "context"

// EmbeddingService encodes text into fixed-length vectors.
// Encoding must be deterministic for a given model and input text.
//
// Implementations include:
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Hashing (offline lexical encoder, no model download)
type EmbeddingService interface {
	// Embed encodes a single text, typically a query.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch encodes texts in order. The result has one vector per
	// input, and an empty input yields an empty result.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size (e.g., 384, 1536).
	Dimensions() int

	// ModelName returns the embedding model identifier. Vectors produced by
	// different models are never compared.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache memoises encoder output keyed by model and content hash.
// It only avoids repeated encoder calls; indexes are still rebuilt in memory.
type EmbeddingCache interface {
	// Get returns cached vectors for the given content hashes. Missing
	// hashes are simply absent from the result.
	Get(ctx context.Context, model string, hashes []string) (map[string][]float32, error)

	// Put stores vectors keyed by content hash.
	Put(ctx context.Context, model string, vectors map[string][]float32) error

	// Clear drops every cached vector.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
