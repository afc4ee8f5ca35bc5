// Package cache provides a generic, thread-safe cache bounded by entry count
// and time to live, with hit/miss/eviction statistics.
//
// It backs both the compiled-expression cache of the engine and the
// CachedResolver of the lookup layer.
//
//	c, err := cache.New(cache.Config[string, any]{
//	    MaxEntries: 1000,
//	    TTL:        5 * time.Minute,
//	})
//	c.Set("sku-1", 9.99)
//	v, ok := c.Get("sku-1")
//	fmt.Printf("%+v\n", c.Stats())
package cache
