package domain

// Retrieval defaults.
const (
	// SimilarityFloor is the exclusive lower bound for a result to be returned.
	SimilarityFloor = 0.10

	// DefaultTopK is the result count for plain search and question answering.
	DefaultTopK = 5

	// DefaultSummaryTopK gathers broader context for summaries.
	DefaultSummaryTopK = 10

	// DefaultChatTopK is used by conversational turns.
	DefaultChatTopK = 3

	// DefaultSuggestionLimit caps search suggestions.
	DefaultSuggestionLimit = 10
)

// SearchOptions configures a retrieval call.
type SearchOptions struct {
	// TopK is the maximum number of results. Zero or negative means the
	// caller's default.
	TopK int
}

// SearchResult is a chunk record with its cosine similarity to the query.
type SearchResult struct {
	ChunkRecord
	Similarity float64 `json:"similarity"`
}
