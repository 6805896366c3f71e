package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/margin/internal/core/ports/driven"
)

// maxParams keeps IN lists under SQLite's bound-parameter limit.
const maxParams = 500

type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns cached vectors for hashes under model. Rows whose blob does
// not match the recorded dimension count are ignored.
func (c *embeddingCache) Get(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	for start := 0; start < len(hashes); start += maxParams {
		batch := hashes[start:min(start+maxParams, len(hashes))]
		if err := c.getBatch(ctx, model, batch, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *embeddingCache) getBatch(ctx context.Context, model string, hashes []string, out map[string][]float32) error {
	if len(hashes) == 0 {
		return nil
	}

	args := make([]any, 0, len(hashes)+1)
	args = append(args, model)
	for _, h := range hashes {
		args = append(args, h)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT hash, dims, vector FROM embeddings WHERE model = ? AND hash IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hash string
			dims int
			blob []byte
		)
		if err := rows.Scan(&hash, &dims, &blob); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}
		if len(blob) != dims*4 {
			continue
		}
		out[hash] = bytesToFloat32Slice(blob)
	}
	return rows.Err()
}

// Put stores vectors in a single transaction, replacing existing rows.
func (c *embeddingCache) Put(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model, hash, dims, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for hash, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, model, hash, len(vec), float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embeddings: %w", err)
	}
	return nil
}

// Clear drops every cached vector.
func (c *embeddingCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (c *embeddingCache) Close() error {
	return c.store.Close()
}
