// Package mysql registers a MySQL database driver backed by go-sql-driver/mysql.
//
//	import _ "github.com/elphick/df-eval/data/mysql"
package mysql

import (
	"context"
	"fmt"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/data"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

type driver struct{}

// Name returns the driver identifier used in configuration files.
func (d *driver) Name() string {
	return "mysql"
}

// Connect opens a pool from a *config.SQL whose Source is a DSN such as
//
//	user:pass@tcp(localhost:3306)/dbname?parseTime=true
func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	sqlCfg, ok := cfg.(*config.SQL)
	if !ok {
		return nil, fmt.Errorf("mysql: invalid configuration type, expected *config.SQL")
	}
	return data.OpenSQL(ctx, "mysql", "mysql", sqlCfg, data.SQLDefaults{})
}

func (d *driver) Close(conn any) error {
	return data.CloseSQL("mysql", conn)
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	return data.PingSQL(ctx, "mysql", conn)
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
