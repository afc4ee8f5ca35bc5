// Package redis registers a redis cache driver backed by go-redis.
//
//	import _ "github.com/elphick/df-eval/data/redis"
package redis

import (
	"context"
	"fmt"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/data"
	"github.com/redis/go-redis/v9"
)

type driver struct{}

func (d *driver) Name() string {
	return "redis"
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	redisCfg, ok := cfg.(*config.Redis)
	if !ok {
		return nil, fmt.Errorf("redis: invalid configuration type, expected *config.Redis")
	}

	if redisCfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         redisCfg.Addr,
		Username:     redisCfg.Username,
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		ReadTimeout:  redisCfg.ReadTimeout,
		WriteTimeout: redisCfg.WriteTimeout,
		DialTimeout:  redisCfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}

	return client, nil
}

func (d *driver) Close(conn any) error {
	client, ok := conn.(*redis.Client)
	if !ok {
		return fmt.Errorf("redis: invalid connection type, expected *redis.Client")
	}

	if err := client.Close(); err != nil {
		return fmt.Errorf("redis: failed to close connection: %w", err)
	}

	return nil
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	client, ok := conn.(*redis.Client)
	if !ok {
		return fmt.Errorf("redis: invalid connection type, expected *redis.Client")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

func init() {
	data.RegisterCacheDriver(&driver{})
}
