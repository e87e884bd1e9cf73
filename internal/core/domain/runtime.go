package domain

import "sync"

// RuntimeConfig tracks which ranking capabilities are available at runtime.
// The backends are chosen at startup; semantic availability can change when
// the embedding service is swapped or fails its health check.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	LexicalBackend  string // "vespa" or "bleve"
	SemanticBackend string // "vespa", "hnsw" or "" when disabled
	CacheBackend    string // "redis" or "memory"

	embeddingAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(lexicalBackend, semanticBackend, cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		LexicalBackend:  lexicalBackend,
		SemanticBackend: semanticBackend,
		CacheBackend:    cacheBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// CanDoSemanticSearch returns true if semantic retrieval is possible
func (c *RuntimeConfig) CanDoSemanticSearch() bool {
	return c.SemanticBackend != "" && c.EmbeddingAvailable()
}
