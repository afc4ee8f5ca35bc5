// Package factory builds lookup resolvers from configuration. Backend
// drivers register themselves with the data package; import
// github.com/elphick/df-eval/data/all, or the individual driver packages,
// for the kinds in use.
package factory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/data"
	"github.com/elphick/df-eval/data/objectstore"
	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/lookup"
	"github.com/elphick/df-eval/lookup/mongodb"
	lookupredis "github.com/elphick/df-eval/lookup/redis"
	"github.com/elphick/df-eval/table"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Build creates the resolver described by cfg, wrapped with its timeout,
// cache and default as configured. The returned closer releases any
// backend connection; it is never nil.
func Build(ctx context.Context, cfg *config.Resolver) (lookup.Resolver, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		return nil, noop, &ecode.ConfigurationError{Field: "resolvers", Message: "resolver configuration is nil"}
	}

	r, closer, err := buildBackend(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}
	if closer == nil {
		closer = noop
	}

	r = lookup.WithTimeout(r, cfg.Timeout)

	if cfg.Cache != nil {
		cached, err := lookup.NewCachedResolver(r, lookup.CacheOptions{
			MaxEntries:   cfg.Cache.MaxEntries,
			TTL:          cfg.Cache.TTL,
			RefreshOnHit: cfg.Cache.RefreshOnHit,
		})
		if err != nil {
			_ = closer()
			return nil, noop, err
		}
		r = cached
	}

	if cfg.Default != nil {
		r = lookup.WithDefault(r, cfg.Default)
	}

	logger.Debugf(ctx, "built %s resolver %q", cfg.Kind, cfg.Name)
	return r, closer, nil
}

func buildBackend(ctx context.Context, cfg *config.Resolver) (lookup.Resolver, func() error, error) {
	switch cfg.Kind {
	case config.KindMap:
		mapping := make(map[any]any, len(cfg.Mapping))
		for k, v := range cfg.Mapping {
			// configuration keys are always strings, type them like CSV cells
			mapping[table.ParseCell(k)] = v
		}
		return lookup.NewMapResolver(mapping), nil, nil

	case config.KindFile:
		if cfg.File == nil {
			return nil, nil, missingSection(cfg)
		}
		if cfg.File.Store != nil {
			return buildObjectFile(ctx, cfg.File)
		}
		fr, err := lookup.NewFileResolver(cfg.File.Path, cfg.File.KeyColumn, cfg.File.ValueColumn)
		if err != nil {
			return nil, nil, err
		}
		if err := fr.Load(); err != nil {
			return nil, nil, err
		}
		if !cfg.File.Watch {
			return fr, nil, nil
		}
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		if err := fr.Watch(watchCtx); err != nil {
			cancel()
			return nil, nil, err
		}
		return fr, func() error { cancel(); return nil }, nil

	case config.KindSQL:
		if cfg.SQL == nil {
			return nil, nil, missingSection(cfg)
		}
		driver, err := data.GetDatabaseDriver(cfg.SQL.Driver)
		if err != nil {
			return nil, nil, err
		}
		conn, err := driver.Connect(ctx, cfg.SQL)
		if err != nil {
			return nil, nil, err
		}
		sr, err := lookup.NewSQLResolver(conn.(*sql.DB), cfg.SQL.Driver, cfg.SQL.Table, cfg.SQL.KeyColumn, cfg.SQL.ValueColumn)
		if err != nil {
			_ = driver.Close(conn)
			return nil, nil, err
		}
		return sr, func() error { return driver.Close(conn) }, nil

	case config.KindRedis:
		if cfg.Redis == nil {
			return nil, nil, missingSection(cfg)
		}
		driver, err := data.GetCacheDriver("redis")
		if err != nil {
			return nil, nil, err
		}
		conn, err := driver.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return lookupredis.New(conn.(*redis.Client), cfg.Redis.Hash, cfg.Redis.Prefix), func() error { return driver.Close(conn) }, nil

	case config.KindMongo:
		if cfg.Mongo == nil {
			return nil, nil, missingSection(cfg)
		}
		driver, err := data.GetDatabaseDriver("mongodb")
		if err != nil {
			return nil, nil, err
		}
		conn, err := driver.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		coll := conn.(*mongo.Client).Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return mongodb.New(coll, cfg.Mongo.KeyField, cfg.Mongo.ValueField), func() error { return driver.Close(conn) }, nil

	case config.KindHTTP:
		if cfg.HTTP == nil {
			return nil, nil, missingSection(cfg)
		}
		opts := lookup.HTTPOptions{Headers: cfg.HTTP.Headers}
		if b := cfg.HTTP.Breaker; b != nil {
			opts.MaxRequests = b.MaxRequests
			opts.Interval = b.Interval
			opts.Timeout = b.Timeout
			opts.FailureThreshold = b.FailureThreshold
		}
		return lookup.NewHTTPResolver(cfg.Name, cfg.HTTP.URL, opts), nil, nil
	}

	return nil, nil, &ecode.ConfigurationError{Field: "kind", Message: fmt.Sprintf("%s: %q", ecode.FieldIsInvalid("resolver kind"), cfg.Kind)}
}

// buildObjectFile loads a lookup file from object storage once
func buildObjectFile(ctx context.Context, cfg *config.File) (lookup.Resolver, func() error, error) {
	if cfg.Watch {
		return nil, nil, &ecode.ConfigurationError{Field: "watch", Message: "object storage files cannot be watched"}
	}
	store, err := objectstore.New(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return buildStoreFile(ctx, cfg, store)
}

func buildStoreFile(ctx context.Context, cfg *config.File, store objectstore.Store) (lookup.Resolver, func() error, error) {
	open := func(ctx context.Context) (io.ReadCloser, error) { return store.Open(ctx, cfg.Path) }
	fr, err := lookup.NewOpenerFileResolver(cfg.Path, open, cfg.KeyColumn, cfg.ValueColumn)
	if err == nil {
		err = fr.LoadContext(ctx)
	}
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return fr, store.Close, nil
}

func missingSection(cfg *config.Resolver) error {
	return &ecode.ConfigurationError{Field: cfg.Kind, Message: ecode.FieldIsRequired(fmt.Sprintf("%s section of resolver %q", cfg.Kind, cfg.Name))}
}

// BuildAll builds every configured resolver keyed by name. On failure the
// resolvers already built are closed.
func BuildAll(ctx context.Context, cfgs []*config.Resolver) (lookup.Resolvers, func() error, error) {
	resolvers := make(lookup.Resolvers, len(cfgs))
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, cfg := range cfgs {
		r, closer, err := Build(ctx, cfg)
		if err != nil {
			_ = closeAll()
			return nil, func() error { return nil }, fmt.Errorf("resolver %q: %w", cfg.Name, err)
		}
		resolvers[cfg.Name] = r
		closers = append(closers, closer)
	}
	return resolvers, closeAll, nil
}
