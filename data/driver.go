package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver interfaces follow the database/sql pattern: drivers register
// themselves from init and are looked up by the name used in configuration.

// DatabaseDriver opens connections to a database backend
type DatabaseDriver interface {
	// Name returns the driver identifier (e.g. "postgres", "sqlite", "mongo")
	Name() string

	// Connect opens a connection from the driver specific configuration
	Connect(ctx context.Context, cfg any) (any, error)

	// Close releases the connection
	Close(conn any) error

	// Ping verifies the connection is alive
	Ping(ctx context.Context, conn any) error
}

// CacheDriver opens connections to a key-value store
type CacheDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
	Ping(ctx context.Context, conn any) error
}

var (
	databaseDrivers   = make(map[string]DatabaseDriver)
	databaseDriversMu sync.RWMutex

	cacheDrivers   = make(map[string]CacheDriver)
	cacheDriversMu sync.RWMutex
)

// RegisterDatabaseDriver makes a database driver available by its name.
// It panics if driver is nil, unnamed or registered twice.
func RegisterDatabaseDriver(driver DatabaseDriver) {
	databaseDriversMu.Lock()
	defer databaseDriversMu.Unlock()

	if driver == nil {
		panic("data: RegisterDatabaseDriver driver is nil")
	}
	name := driver.Name()
	if name == "" {
		panic("data: RegisterDatabaseDriver driver name is empty")
	}
	if _, dup := databaseDrivers[name]; dup {
		panic(fmt.Sprintf("data: RegisterDatabaseDriver called twice for driver %s", name))
	}
	databaseDrivers[name] = driver
}

// RegisterCacheDriver makes a cache driver available by its name.
// It panics if driver is nil, unnamed or registered twice.
func RegisterCacheDriver(driver CacheDriver) {
	cacheDriversMu.Lock()
	defer cacheDriversMu.Unlock()

	if driver == nil {
		panic("data: RegisterCacheDriver driver is nil")
	}
	name := driver.Name()
	if name == "" {
		panic("data: RegisterCacheDriver driver name is empty")
	}
	if _, dup := cacheDrivers[name]; dup {
		panic(fmt.Sprintf("data: RegisterCacheDriver called twice for driver %s", name))
	}
	cacheDrivers[name] = driver
}

// GetDatabaseDriver retrieves a registered database driver by name
func GetDatabaseDriver(name string) (DatabaseDriver, error) {
	databaseDriversMu.RLock()
	defer databaseDriversMu.RUnlock()

	driver, ok := databaseDrivers[name]
	if !ok {
		return nil, fmt.Errorf(
			"data: database driver %q not registered, import github.com/elphick/df-eval/data/%s (available: %v)",
			name, name, sortedKeys(databaseDrivers),
		)
	}
	return driver, nil
}

// GetCacheDriver retrieves a registered cache driver by name
func GetCacheDriver(name string) (CacheDriver, error) {
	cacheDriversMu.RLock()
	defer cacheDriversMu.RUnlock()

	driver, ok := cacheDrivers[name]
	if !ok {
		return nil, fmt.Errorf(
			"data: cache driver %q not registered, import github.com/elphick/df-eval/data/%s (available: %v)",
			name, name, sortedKeys(cacheDrivers),
		)
	}
	return driver, nil
}

// ListRegisteredDrivers returns the registered driver names by category
func ListRegisteredDrivers() map[string][]string {
	databaseDriversMu.RLock()
	databases := sortedKeys(databaseDrivers)
	databaseDriversMu.RUnlock()

	cacheDriversMu.RLock()
	caches := sortedKeys(cacheDrivers)
	cacheDriversMu.RUnlock()

	return map[string][]string{
		"database": databases,
		"cache":    caches,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
