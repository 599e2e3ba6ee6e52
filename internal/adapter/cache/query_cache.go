package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"medrag/internal/port"
)

// QueryCache is an LRU cache of search hits with a per-entry TTL.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	hits      []port.SearchHit
	timestamp time.Time
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

func cacheKey(indexName, query string, topK int) string {
	h := sha256.New()
	h.Write([]byte(indexName))
	h.Write([]byte{0})
	h.Write([]byte(query))
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(topK))
	h.Write(k[:])
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func (c *QueryCache) Get(indexName, query string, topK int) ([]port.SearchHit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(indexName, query, topK)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return cloneHits(entry.hits), true
}

func (c *QueryCache) Put(indexName, query string, topK int, hits []port.SearchHit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(indexName, query, topK)
	entry := &cacheEntry{hits: cloneHits(hits), timestamp: c.now()}

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

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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

// cloneHits copies the slice so callers cannot mutate cached entries. Content
// maps are shared; nothing downstream writes to them.
func cloneHits(hits []port.SearchHit) []port.SearchHit {
	if hits == nil {
		return nil
	}
	out := make([]port.SearchHit, len(hits))
	copy(out, hits)
	return out
}

// CachedBackend serves repeated searches from a QueryCache. Failed searches
// are not cached.
type CachedBackend struct {
	backend port.SearchBackend
	cache   *QueryCache
}

func NewCachedBackend(backend port.SearchBackend, cache *QueryCache) *CachedBackend {
	return &CachedBackend{
		backend: backend,
		cache:   cache,
	}
}

func (b *CachedBackend) Search(ctx context.Context, indexName, query string, topK int) ([]port.SearchHit, error) {
	if hits, hit := b.cache.Get(indexName, query, topK); hit {
		return hits, nil
	}

	hits, err := b.backend.Search(ctx, indexName, query, topK)
	if err != nil {
		return nil, err
	}

	b.cache.Put(indexName, query, topK, hits)
	return hits, nil
}
