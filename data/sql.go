package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/elphick/df-eval/config"
)

// SQLDefaults are pool settings applied when the configuration leaves them zero
type SQLDefaults struct {
	MaxIdleConn int
	MaxOpenConn int
}

// OpenSQL opens a database/sql pool for driverName, applies pool settings
// and pings it. label prefixes error messages.
func OpenSQL(ctx context.Context, label, driverName string, cfg *config.SQL, defaults SQLDefaults) (*sql.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%s: sql configuration is nil", label)
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("%s: connection source is empty", label)
	}

	db, err := sql.Open(driverName, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open connection: %w", label, err)
	}

	if n := firstPositive(cfg.MaxIdleConn, defaults.MaxIdleConn); n > 0 {
		db.SetMaxIdleConns(n)
	}
	if n := firstPositive(cfg.MaxOpenConn, defaults.MaxOpenConn); n > 0 {
		db.SetMaxOpenConns(n)
	}
	if cfg.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifeTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", label, err)
	}
	return db, nil
}

// CloseSQL closes a pool returned by a SQL driver
func CloseSQL(label string, conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", label)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("%s: failed to close connection: %w", label, err)
	}
	return nil
}

// PingSQL pings a pool returned by a SQL driver
func PingSQL(ctx context.Context, label string, conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", label)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping failed: %w", label, err)
	}
	return nil
}

func firstPositive(v ...int) int {
	for _, n := range v {
		if n > 0 {
			return n
		}
	}
	return 0
}
