// Package memo provides keyed memoisation for the expensive steps of a corpus
// load: constructing encoders, reading the notes root and embedding chunks.
//
// A Cache computes each key at most once while it is held. Concurrent callers
// asking for a key that is being computed wait for that computation instead of
// starting their own. Failed computations are not kept. Invalidation is total.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultLimit is the entry bound used when no limit is configured.
const DefaultLimit = 256

// Cache memoises values of type V by comparable key K.
type Cache[K comparable, V any] struct {
	entries *lru.Cache[K, V]
	flights singleflight.Group

	// gen is bumped by Invalidate so running computations cannot store
	// into, or be joined from, a later generation.
	mu  sync.Mutex
	gen uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit bounds the number of held entries. The least recently used entry
// is dropped when a new key would exceed the limit. Zero means DefaultLimit.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// New creates an empty cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := &options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(o)
	}
	entries, err := lru.New[K, V](o.limit)
	if err != nil {
		// lru.New only fails on a non-positive size, which options rule out.
		panic(fmt.Sprintf("memo: %v", err))
	}
	return &Cache[K, V]{entries: entries}
}

// Get returns the value for key, calling compute if it is not held.
// Errors from compute are returned to every waiting caller and not cached.
func (c *Cache[K, V]) Get(ctx context.Context, key K, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	ch := c.flights.DoChan(flightKey(gen, key), func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			c.hits.Add(1)
			return v, nil
		}
		c.misses.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns a held value without computing anything or touching recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.entries.Peek(key)
}

// Invalidate drops every entry. Computations already running finish, but
// their results are not kept.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries.Purge()
}

// Len returns the number of held entries.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Stats returns the hit and miss counters.
func (c *Cache[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func flightKey[K comparable](gen uint64, key K) string {
	return fmt.Sprintf("%d\x00%#v", gen, key)
}

// Fingerprint hashes the parts into a hex sha256 key. Parts are separated so
// ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
