package query

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the number of results kept by NewCache(0).
const DefaultCacheSize = 256

type cacheEntry struct {
	key    string
	result Result
}

// Cache is a fixed-capacity LRU of query results. Both Get and Put renew
// an entry's recency. A nil *Cache is a valid, always-empty cache.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	items     map[string]*list.Element
	evictList *list.List
}

// NewCache creates a cache holding up to capacity results. A non-positive
// capacity selects DefaultCacheSize.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a copy of the cached result for key.
func (c *Cache) Get(key string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return ent.Value.(*cacheEntry).result.Clone(), true
	}
	return Result{}, false
}

// Put stores a copy of result under key, evicting the least recently used entry when
// full.
func (c *Cache) Put(key string, result Result) {
	if c == nil {
		return
	}
	result = result.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*cacheEntry).result = result
		return
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, result: result})

	for c.evictList.Len() > c.capacity {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}
