package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elphick/df-eval/ecode"
)

// Stats tracks cache statistics
type Stats struct {
	Hits      int64 // Number of cache hits
	Misses    int64 // Number of cache misses
	Evictions int64 // Number of capacity evictions
	Size      int64 // Current number of entries
}

// Config defines configuration options for the cache
type Config[K comparable, V any] struct {
	MaxEntries   int                  // Maximum number of entries, 0 means unbounded
	TTL          time.Duration        // Time to live for entries, 0 disables expiry
	RefreshOnHit bool                 // Reset an entry's timestamp when it is served
	OnEvict      func(key K, value V) // Callback when an entry is evicted for capacity
	Now          func() time.Time     // Clock, defaults to time.Now
}

// Validate validates configuration
func (c *Config[K, V]) Validate() error {
	if c.MaxEntries < 0 {
		return &ecode.ConfigurationError{Field: "max_entries", Message: fmt.Sprintf("must be >= 0, got %d", c.MaxEntries)}
	}
	if c.TTL < 0 {
		return &ecode.ConfigurationError{Field: "ttl", Message: fmt.Sprintf("must be >= 0, got %s", c.TTL)}
	}
	return nil
}

// entry represents a single cache entry
type entry[K comparable, V any] struct {
	key       K
	value     V
	timestamp time.Time // insertion or refresh time
}

// Cache is a thread-safe, capacity-bounded cache with TTL support.
// Entries are ordered by insertion or refresh time; when the cache is full
// the least recently inserted or refreshed entry is evicted.
type Cache[K comparable, V any] struct {
	items     map[K]*list.Element
	evictList *list.List // front is the most recently inserted or refreshed
	stats     Stats
	config    Config[K, V]
	mu        sync.Mutex
}

// New creates a new cache instance with the given configuration
func New[K comparable, V any](cfg Config[K, V]) (*Cache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache[K, V]{
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		config:    cfg,
	}, nil
}

// expired reports whether the entry is older than the TTL
func (c *Cache[K, V]) expired(e *entry[K, V], now time.Time) bool {
	return c.config.TTL > 0 && now.Sub(e.timestamp) >= c.config.TTL
}

// Get retrieves a fresh value from the cache, counting a hit or a miss.
// Expired entries are removed and reported as misses.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ent, ok := c.items[key]
	if !ok {
		atomic.AddInt64(&c.stats.Misses, 1)
		return zero, false
	}

	e := ent.Value.(*entry[K, V])
	now := c.config.Now()
	if c.expired(e, now) {
		c.removeElement(ent)
		atomic.AddInt64(&c.stats.Misses, 1)
		return zero, false
	}

	if c.config.RefreshOnHit {
		e.timestamp = now
		c.evictList.MoveToFront(ent)
	}
	atomic.AddInt64(&c.stats.Hits, 1)
	return e.value, true
}

// Peek returns a fresh value without touching statistics or ordering
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ent, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := ent.Value.(*entry[K, V])
	if c.expired(e, c.config.Now()) {
		return zero, false
	}
	return e.value, true
}

// Set adds or updates a value in the cache, stamping it with the current time
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	if ent, ok := c.items[key]; ok {
		e := ent.Value.(*entry[K, V])
		e.value = value
		e.timestamp = now
		c.evictList.MoveToFront(ent)
		return
	}

	element := c.evictList.PushFront(&entry[K, V]{key: key, value: value, timestamp: now})
	c.items[key] = element
	atomic.AddInt64(&c.stats.Size, 1)

	for c.config.MaxEntries > 0 && c.evictList.Len() > c.config.MaxEntries {
		c.evictOldest()
	}
}

// Remove removes a key from the cache
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
		return true
	}
	return false
}

// removeElement removes an element from the cache
func (c *Cache[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*entry[K, V])
	delete(c.items, ent.key)
	atomic.AddInt64(&c.stats.Size, -1)
}

// evictOldest removes the oldest item from the cache
func (c *Cache[K, V]) evictOldest() bool {
	ent := c.evictList.Back()
	if ent == nil {
		return false
	}
	c.removeElement(ent)
	atomic.AddInt64(&c.stats.Evictions, 1)
	if c.config.OnEvict != nil {
		e := ent.Value.(*entry[K, V])
		c.config.OnEvict(e.key, e.value)
	}
	return true
}

// Clear removes all items from the cache and resets the statistics
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.evictList.Init()
	atomic.StoreInt64(&c.stats.Hits, 0)
	atomic.StoreInt64(&c.stats.Misses, 0)
	atomic.StoreInt64(&c.stats.Evictions, 0)
	atomic.StoreInt64(&c.stats.Size, 0)
}

// Len returns the number of items in the cache
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the cached keys, most recently inserted or refreshed first
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.evictList.Len())
	for ent := c.evictList.Front(); ent != nil; ent = ent.Next() {
		keys = append(keys, ent.Value.(*entry[K, V]).key)
	}
	return keys
}

// Stats returns cache statistics
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&c.stats.Hits),
		Misses:    atomic.LoadInt64(&c.stats.Misses),
		Evictions: atomic.LoadInt64(&c.stats.Evictions),
		Size:      atomic.LoadInt64(&c.stats.Size),
	}
}

// PurgeExpired manually removes all expired items from the cache
func (c *Cache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	now := c.config.Now()
	for _, ent := range c.items {
		if c.expired(ent.Value.(*entry[K, V]), now) {
			c.removeElement(ent)
			count++
		}
	}
	return count
}
