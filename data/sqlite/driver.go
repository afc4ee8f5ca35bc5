// Package sqlite registers a SQLite database driver backed by mattn/go-sqlite3.
//
//	import _ "github.com/elphick/df-eval/data/sqlite"
//
// Example sources:
//
//	"rates.db"                   // file path
//	":memory:"                   // in-memory database
//	"file::memory:?cache=shared" // shared in-memory database
package sqlite

import (
	"context"
	"fmt"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/data"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type driver struct{}

// Name returns the driver identifier used in configuration files.
func (d *driver) Name() string {
	return "sqlite"
}

// Connect opens a pool from a *config.SQL. Unset pool sizes default to a
// single open connection so an in-memory database is shared by all queries.
func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	sqlCfg, ok := cfg.(*config.SQL)
	if !ok {
		return nil, fmt.Errorf("sqlite: invalid configuration type, expected *config.SQL")
	}
	return data.OpenSQL(ctx, "sqlite", "sqlite3", sqlCfg, data.SQLDefaults{MaxIdleConn: 1, MaxOpenConn: 1})
}

func (d *driver) Close(conn any) error {
	return data.CloseSQL("sqlite", conn)
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	return data.PingSQL(ctx, "sqlite", conn)
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
