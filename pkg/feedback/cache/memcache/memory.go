package memcache

import (
	"context"
	"slices"
	"sync"

	"github.com/cognicore/feedback/pkg/feedback/embedding"
)

// Cache is an in-memory implementation of embedding.Cache.
type Cache struct {
	mu      sync.RWMutex
	vectors map[key]embedding.Vector
}

type key struct {
	model string
	text  string
}

// New creates an empty in-memory cache.
func New() *Cache {
	return &Cache{vectors: make(map[key]embedding.Vector)}
}

// Get implements embedding.Cache.
func (c *Cache) Get(_ context.Context, model, text string) (embedding.Vector, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[key{model, text}]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Put implements embedding.Cache.
func (c *Cache) Put(_ context.Context, model, text string, v embedding.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[key{model, text}] = slices.Clone(v)
	return nil
}

// Count returns the number of cached vectors for a model.
func (c *Cache) Count(_ context.Context, model string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for k := range c.vectors {
		if k.model == model {
			n++
		}
	}
	return n, nil
}

// Close implements embedding.Cache.
func (c *Cache) Close() error { return nil }
