// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - NoteSource: Scans and watches the notes root
//   - Normaliser / NormaliserRegistry: Split a raw file into metadata and body
//   - PostProcessor / PostProcessorPipeline: Turn a note into chunk records
//   - EmbeddingService: Encodes chunk and query text into vectors
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer and summary generation. Without it, search still works.
//   - EmbeddingCache: Memoises encoder output by content hash.
//   - PromptStore: Overrides the built-in prompt instructions.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
