// Package sqlite provides a SQLite-backed driven.EmbeddingCache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Vectors are stored as little-endian float32 blobs keyed by
// model name and content hash, so switching models never returns a vector
// of the wrong shape.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database lives at cache.path, defaulting to ~/.margin/cache/embeddings.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode with a
// busy timeout.
package sqlite
