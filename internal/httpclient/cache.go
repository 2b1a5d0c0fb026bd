package httpclient

import (
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedResponse is one stored GET response.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// PageCache is a bounded in-memory response cache over go-cache. Capacity is
// enforced by refusing inserts at the cap; expired entries free their slots
// through go-cache's janitor.
type PageCache struct {
	entries    *gocache.Cache
	maxEntries int
	onHit      func()
	onMiss     func()
}

// NewPageCache builds a cache holding at most maxEntries responses for ttl.
// maxEntries <= 0 derives a tier from the process memory budget.
func NewPageCache(maxEntries int, ttl, cleanup time.Duration, onHit, onMiss func()) *PageCache {
	if maxEntries <= 0 {
		maxEntries = EntriesForBudget(MemoryBudget())
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cleanup <= 0 {
		cleanup = 2 * ttl
	}
	if onHit == nil {
		onHit = func() {}
	}
	if onMiss == nil {
		onMiss = func() {}
	}
	return &PageCache{
		entries:    gocache.New(ttl, cleanup),
		maxEntries: maxEntries,
		onHit:      onHit,
		onMiss:     onMiss,
	}
}

func (c *PageCache) Get(key string) (CachedResponse, bool) {
	if c == nil {
		return CachedResponse{}, false
	}
	value, ok := c.entries.Get(key)
	if !ok {
		c.onMiss()
		return CachedResponse{}, false
	}
	response, ok := value.(CachedResponse)
	if !ok {
		c.onMiss()
		return CachedResponse{}, false
	}
	c.onHit()
	return response, true
}

func (c *PageCache) Put(key string, response CachedResponse) {
	if c == nil {
		return
	}
	if _, exists := c.entries.Get(key); !exists && c.entries.ItemCount() >= c.maxEntries {
		return
	}
	c.entries.SetDefault(key, response)
}

// Len reports the current entry count, expired items included until the
// janitor runs.
func (c *PageCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.ItemCount()
}
