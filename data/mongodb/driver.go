// Package mongodb registers a MongoDB database driver backed by mongo-driver.
//
//	import _ "github.com/elphick/df-eval/data/mongodb"
//
// Connect returns a *mongo.Client; callers pick the database and
// collection from their own configuration.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/data"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type driver struct{}

// Name returns the driver identifier used in configuration files.
func (d *driver) Name() string {
	return "mongodb"
}

// Connect opens a client from a *config.Mongo and pings it
func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	mongoCfg, ok := cfg.(*config.Mongo)
	if !ok {
		return nil, fmt.Errorf("mongodb: invalid configuration type, expected *config.Mongo")
	}
	return newMongoClient(ctx, mongoCfg)
}

func (d *driver) Close(conn any) error {
	client, ok := conn.(*mongo.Client)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Client")
	}
	if err := client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("mongodb: failed to disconnect: %w", err)
	}
	return nil
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	client, ok := conn.(*mongo.Client)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Client")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return nil
}

func newMongoClient(ctx context.Context, conf *config.Mongo) (*mongo.Client, error) {
	if conf == nil || conf.URI == "" {
		return nil, errors.New("mongodb: configuration is nil or URI is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping error: %w", err)
	}

	return client, nil
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
