package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/elphick/df-eval/ecode"
)

// fakeClock is a manually advanced clock
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(t *testing.T, cfg Config[string, int]) (*Cache[string, int], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg.Now = clock.Now
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return c, clock
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache(t, Config[string, int]{})

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected hit with 1, got %v %v", v, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	var evicted []string
	c, _ := newTestCache(t, Config[string, int]{
		MaxEntries: 2,
		OnEvict:    func(key string, _ int) { evicted = append(evicted, key) },
	})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Peek("a"); ok {
		t.Errorf("expected oldest entry to be evicted")
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected eviction callback for a, got %v", evicted)
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestCacheSetRefreshesOrder(t *testing.T) {
	c, _ := newTestCache(t, Config[string, int]{MaxEntries: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // refresh moves a to the front
	c.Set("c", 3)

	if _, ok := c.Peek("b"); ok {
		t.Errorf("expected b to be evicted after a was refreshed")
	}
	if v, ok := c.Peek("a"); !ok || v != 10 {
		t.Errorf("expected refreshed a=10, got %v %v", v, ok)
	}
}

func TestCacheTTL(t *testing.T) {
	c, clock := newTestCache(t, Config[string, int]{TTL: time.Minute})

	c.Set("a", 1)
	clock.Advance(30 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected entry to be fresh before TTL")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to expire after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed")
	}
}

func TestCacheRefreshOnHit(t *testing.T) {
	c, clock := newTestCache(t, Config[string, int]{TTL: time.Minute, RefreshOnHit: true})

	c.Set("a", 1)
	clock.Advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit")
	}
	clock.Advance(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit to have extended the entry's life")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache(t, Config[string, int]{})

	c.Set("a", 1)
	clock.Advance(24 * 365 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Errorf("expected entry without TTL to stay fresh")
	}
}

func TestCacheClearResetsStats(t *testing.T) {
	c, _ := newTestCache(t, Config[string, int]{})

	c.Set("a", 1)
	c.Get("a")
	c.Get("b")
	c.Clear()

	if stats := c.Stats(); stats != (Stats{}) {
		t.Errorf("expected zeroed stats after clear, got %+v", stats)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear")
	}
}

func TestCachePurgeExpired(t *testing.T) {
	c, clock := newTestCache(t, Config[string, int]{TTL: time.Second})

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(2 * time.Second)
	c.Set("c", 3)

	if n := c.PurgeExpired(); n != 2 {
		t.Errorf("expected 2 purged entries, got %d", n)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "c" {
		t.Errorf("expected only c to remain, got %v", keys)
	}
}

func TestCacheInvalidConfig(t *testing.T) {
	_, err := New(Config[string, int]{MaxEntries: -1})
	if !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}

	_, err = New(Config[string, int]{TTL: -time.Second})
	if !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
