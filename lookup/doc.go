// Package lookup maps key columns to values through named resolvers.
//
// A Resolver answers a batch of keys in one call. Apply gathers the
// distinct non-missing keys of a column, resolves them once and applies
// the missing-key policy (null, default, raise or key). CachedResolver
// adds a bounded TTL cache with in-flight deduplication on top of any
// resolver.
//
// Backends: MapResolver (in memory), FileResolver (CSV or JSON, optionally
// watched), SQLResolver, RedisResolver, MongoResolver and HTTPResolver.
// Build assembles any of them from configuration.
package lookup
