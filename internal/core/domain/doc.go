// Package domain defines the core entities for margin.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawNote / Note: a file under the notes root before and after normalisation
//   - ChunkRecord: the atomic retrievable unit
//   - Corpus, Index, Snapshot: immutable results of one corpus load
//   - SearchResult, Answer, Summary: per-query derived values
//   - SourceSummary, Resolution, DailyEntry: browsing and link graph views
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
