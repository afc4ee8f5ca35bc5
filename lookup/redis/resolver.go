// Package redis resolves lookup keys from redis hashes or plain keys.
package redis

import (
	"context"
	"fmt"

	"github.com/elphick/df-eval/table"
	"github.com/redis/go-redis/v9"
)

// Resolver resolves keys from redis. With a hash configured each key
// is a field of that hash, otherwise keys are read as prefix+key strings.
// Values are stored as strings and parsed like CSV cells.
type Resolver struct {
	client redis.Cmdable
	hash   string
	prefix string
}

// New creates a resolver over client
func New(client redis.Cmdable, hash, prefix string) *Resolver {
	return &Resolver{client: client, hash: hash, prefix: prefix}
}

// Resolve fetches every key with one HMGET or MGET
func (r *Resolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = r.prefix + table.ToString(k)
	}

	var (
		values []any
		err    error
	)
	if r.hash != "" {
		values, err = r.client.HMGet(ctx, r.hash, names...).Result()
	} else {
		values, err = r.client.MGet(ctx, names...).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis: failed to read %d key(s): %w", len(keys), err)
	}

	out := make([]any, len(keys))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = table.ParseCell(s)
		}
	}
	return out, nil
}
