// Package cache memoises retrieval results per question until the active
// index changes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"docchat/internal/domain"
	"docchat/internal/port"
)

type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time

	hits, misses int
}

type cacheEntry struct {
	results   []domain.ScoredChunk
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(query)
	data = append(data, 0, byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns a copy of the cached results. Entries that expired or belong to
// an earlier index generation are dropped.
func (c *QueryCache) Get(query string, topK int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return clone(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:   clone(results),
		timestamp: c.now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry and starts a new index generation.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func clone(in []domain.ScoredChunk) []domain.ScoredChunk {
	if in == nil {
		return nil
	}
	out := make([]domain.ScoredChunk, len(in))
	copy(out, in)
	return out
}

type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)
	return results, nil
}
