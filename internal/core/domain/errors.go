package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested file or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates a file type no normaliser handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyCorpus indicates there are no chunk records to work with.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrNotLoaded indicates no corpus snapshot has been loaded yet.
	ErrNotLoaded = errors.New("corpus not loaded")

	// AI Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or not reachable. Nothing can be indexed or searched without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generator is not configured.
	// Search still works; asking and summarising do not.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGeneration indicates the generator failed to produce text.
	ErrGeneration = errors.New("generation failed")

	// ErrDimensionMismatch indicates vectors of different lengths were compared
	// or an encoder returned a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidProvider indicates an unknown AI provider name.
	ErrInvalidProvider = errors.New("invalid AI provider")

	// Configuration Errors.

	// ErrConfigNotFound indicates a configuration key or file is missing.
	ErrConfigNotFound = errors.New("config not found")
)
