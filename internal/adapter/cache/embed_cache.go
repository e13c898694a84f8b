package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// EmbedCache memoizes embedding vectors by content hash. The same
// parameter texts are embedded once per paper otherwise, so even a small
// bound pays for itself. Entries never go stale: the embedding of a fixed
// string does not change within a run.
type EmbedCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	order   []string
	maxSize int
}

func NewEmbedCache(maxSize int) *EmbedCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &EmbedCache{
		entries: make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func embedKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:16])
}

func (c *EmbedCache) Get(text string) ([]float32, bool) {
	key := embedKey(text)

	c.mu.RLock()
	vector, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return vector, true
}

func (c *EmbedCache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := embedKey(text)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = vector
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = vector
	c.order = append(c.order, key)
}

func (c *EmbedCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *EmbedCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbedCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *EmbedCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
