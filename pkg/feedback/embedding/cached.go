package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Cache stores vectors keyed by model name and text.
type Cache interface {
	Get(ctx context.Context, model, text string) (Vector, bool, error)
	Put(ctx context.Context, model, text string, v Vector) error
	Close() error
}

// Cached serves repeated texts from a Cache and forwards the rest to the
// wrapped embedder in one batch.
type Cached struct {
	inner Embedder
	cache Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps inner with cache.
func NewCached(inner Embedder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Name implements Embedder.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Embed implements Embedder.
func (c *Cached) Embed(ctx context.Context, text string) (Vector, error) {
	return embedOne(ctx, c, text)
}

// EmbedBatch implements Embedder.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	model := c.inner.Name()
	vectors := make([]Vector, len(texts))

	var missing []string
	pending := make(map[string][]int)
	for i, text := range texts {
		v, ok, err := c.cache.Get(ctx, model, text)
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		if ok {
			vectors[i] = v
			c.hits.Add(1)
			continue
		}
		c.misses.Add(1)
		if _, seen := pending[text]; !seen {
			missing = append(missing, text)
		}
		pending[text] = append(pending[text], i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, text := range missing {
		if err := c.cache.Put(ctx, model, text, fresh[j]); err != nil {
			return nil, fmt.Errorf("cache store: %w", err)
		}
		for _, i := range pending[text] {
			vectors[i] = fresh[j]
		}
	}
	return vectors, nil
}

// Stats returns cache hit and miss counts since creation.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
