package embedding

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbeddingCache is an LRU cache of generated embeddings.
type EmbeddingCache struct {
	lru *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) (*EmbeddingCache, error) {
	c, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &EmbeddingCache{lru: c}, nil
}

// Get returns a copy of the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a copy of value for key, evicting the least recently used entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	v := make([]float32, len(value))
	copy(v, value)
	c.lru.Add(key, v)
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.lru.Len()
}

// cacheKey identifies an embedding by everything that influences its value.
func cacheKey(cfg Config, text string) string {
	source := cfg.APIEndpoint
	if cfg.Method == BertEmbedding {
		source = cfg.ModelPath
	}
	return fmt.Sprintf("%s|%d|%s|%s", cfg.Method, cfg.Dim, source, text)
}
