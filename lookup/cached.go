package lookup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elphick/df-eval/cache"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/observes"
	"go.opentelemetry.io/otel/attribute"
)

// CacheOptions configures a CachedResolver
type CacheOptions struct {
	MaxEntries   int           // 0 means unbounded
	TTL          time.Duration // 0 disables expiry
	RefreshOnHit bool
	Now          func() time.Time
}

// Stats reports cache counters. Hits and misses are counted per distinct key.
type Stats = cache.Stats

// fetch is one in-flight wrapped Resolve shared by every caller waiting on
// one of its keys
type fetch struct {
	done   chan struct{}
	values map[string]any
	err    error
}

// CachedResolver wraps a Resolver with a capacity- and TTL-bounded cache.
// Concurrent callers asking for a key that is already being fetched wait
// for that fetch instead of issuing another.
type CachedResolver struct {
	resolver Resolver
	entries  *cache.Cache[string, any]

	mu       sync.Mutex
	inflight map[string]*fetch

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedResolver wraps r
func NewCachedResolver(r Resolver, opts CacheOptions) (*CachedResolver, error) {
	entries, err := cache.New(cache.Config[string, any]{
		MaxEntries:   opts.MaxEntries,
		TTL:          opts.TTL,
		RefreshOnHit: opts.RefreshOnHit,
		Now:          opts.Now,
	})
	if err != nil {
		return nil, err
	}
	return &CachedResolver{
		resolver: r,
		entries:  entries,
		inflight: make(map[string]*fetch),
	}, nil
}

// Unwrap returns the wrapped resolver
func (c *CachedResolver) Unwrap() Resolver { return c.resolver }

// Default forwards to the wrapped resolver's default, if it has one
func (c *CachedResolver) Default() (any, bool) {
	if d, ok := c.resolver.(Defaulter); ok {
		return d.Default()
	}
	return nil, false
}

// Resolve serves fresh cached keys and fetches the rest with one call to
// the wrapped resolver
func (c *CachedResolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	ids := make([]string, len(keys))
	results := make(map[string]any, len(keys))
	var (
		fetchIDs  []string
		fetchKeys []any
		waits     = make(map[*fetch]struct{})
		own       *fetch
	)

	seen := make(map[string]bool, len(keys))
	c.mu.Lock()
	for i, k := range keys {
		id := KeyID(k)
		ids[i] = id
		if seen[id] {
			continue
		}
		seen[id] = true

		if v, ok := c.entries.Get(id); ok {
			results[id] = v
			c.hits.Add(1)
			continue
		}
		if f, ok := c.inflight[id]; ok {
			waits[f] = struct{}{}
			c.hits.Add(1)
			continue
		}
		if own == nil {
			own = &fetch{done: make(chan struct{})}
		}
		c.inflight[id] = own
		fetchIDs = append(fetchIDs, id)
		fetchKeys = append(fetchKeys, k)
		c.misses.Add(1)
	}
	c.mu.Unlock()

	if own != nil {
		c.fetch(ctx, own, fetchIDs, fetchKeys)
		if own.err != nil {
			return nil, own.err
		}
		for id, v := range own.values {
			results[id] = v
		}
	}

	for f := range waits {
		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if f.err != nil {
			return nil, f.err
		}
		for id, v := range f.values {
			results[id] = v
		}
	}

	out := make([]any, len(keys))
	for i, id := range ids {
		out[i] = results[id]
	}
	return out, nil
}

// fetch runs the wrapped resolver for one batch and publishes the result
// to waiters. The in-flight markers are always released.
func (c *CachedResolver) fetch(ctx context.Context, f *fetch, ids []string, keys []any) {
	ctx, span := observes.StartSpan(ctx, "lookup.fetch", attribute.Int("lookup.keys", len(keys)))
	defer func() {
		observes.EndSpan(span, f.err)
		c.mu.Lock()
		for _, id := range ids {
			if c.inflight[id] == f {
				delete(c.inflight, id)
			}
		}
		c.mu.Unlock()
		close(f.done)
	}()

	logger.Debugf(ctx, "lookup cache fetching %d key(s)", len(keys))
	values, err := c.resolver.Resolve(ctx, keys)
	if err != nil {
		f.err = err
		return
	}
	if len(values) != len(keys) {
		f.err = fmt.Errorf("resolver returned %d values for %d keys", len(values), len(keys))
		return
	}

	f.values = make(map[string]any, len(ids))
	for i, id := range ids {
		f.values[id] = values[i]
		c.entries.Set(id, values[i])
	}
}

// Stats returns hit, miss and eviction counters and the current size
func (c *CachedResolver) Stats() Stats {
	s := c.entries.Stats()
	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	return s
}

// Clear drops every cached entry and resets the counters
func (c *CachedResolver) Clear() {
	c.entries.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Len returns the number of cached entries, expired ones included
func (c *CachedResolver) Len() int { return c.entries.Len() }

// PurgeExpired removes expired entries and returns how many were removed
func (c *CachedResolver) PurgeExpired() int { return c.entries.PurgeExpired() }
