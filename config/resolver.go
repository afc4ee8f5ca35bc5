package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Resolver kinds
const (
	KindMap   = "map"
	KindFile  = "file"
	KindSQL   = "sql"
	KindRedis = "redis"
	KindMongo = "mongo"
	KindHTTP  = "http"
)

// Resolver configures one named lookup resolver. Exactly the section
// matching Kind is required.
type Resolver struct {
	Name    string         `mapstructure:"name" validate:"required"`
	Kind    string         `mapstructure:"kind" validate:"required,oneof=map file sql redis mongo http"`
	Default any            `mapstructure:"default"` // value for on_missing="default", nil means none
	Timeout time.Duration  `mapstructure:"timeout" validate:"gte=0"`
	Mapping map[string]any `mapstructure:"mapping"`
	File    *File          `mapstructure:"file" validate:"required_if=Kind file"`
	SQL     *SQL           `mapstructure:"sql" validate:"required_if=Kind sql"`
	Redis   *Redis         `mapstructure:"redis" validate:"required_if=Kind redis"`
	Mongo   *Mongo         `mapstructure:"mongo" validate:"required_if=Kind mongo"`
	HTTP    *HTTP          `mapstructure:"http" validate:"required_if=Kind http"`
	Cache   *Cache         `mapstructure:"cache"`
}

// File configures a CSV or JSON backed resolver. With Store set, Path is
// the object key inside the store's bucket.
type File struct {
	Path        string       `mapstructure:"path" validate:"required"`
	KeyColumn   string       `mapstructure:"key_column" validate:"required"`
	ValueColumn string       `mapstructure:"value_column" validate:"required"`
	Watch       bool         `mapstructure:"watch" validate:"excluded_with=Store"`
	Store       *ObjectStore `mapstructure:"store"`
}

// ObjectStore locates lookup files in object storage
type ObjectStore struct {
	Provider           string `mapstructure:"provider" validate:"required,oneof=minio s3 gcs azure aliyun tencent qiniu"`
	ID                 string `mapstructure:"id"`     // access key ID or account name
	Secret             string `mapstructure:"secret"` // secret access key or account key
	Region             string `mapstructure:"region"`
	Bucket             string `mapstructure:"bucket" validate:"required"` // bucket or container
	Endpoint           string `mapstructure:"endpoint"`
	UseSSL             bool   `mapstructure:"use_ssl"`
	ServiceAccountJSON string `mapstructure:"service_account_json"` // gcs credentials file
	AppID              string `mapstructure:"app_id"`               // tencent COS application ID
	Domain             string `mapstructure:"domain"`               // qiniu download domain
}

// SQL configures a database/sql backed resolver
type SQL struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres mysql sqlite"`
	Source          string        `mapstructure:"source" validate:"required"`
	Table           string        `mapstructure:"table" validate:"required"`
	KeyColumn       string        `mapstructure:"key_column" validate:"required"`
	ValueColumn     string        `mapstructure:"value_column" validate:"required"`
	MaxIdleConn     int           `mapstructure:"max_idle_conn" validate:"gte=0"`
	MaxOpenConn     int           `mapstructure:"max_open_conn" validate:"gte=0"`
	ConnMaxLifeTime time.Duration `mapstructure:"conn_max_life_time" validate:"gte=0"`
}

// Redis configures a redis backed resolver. With Hash set keys are fields
// of that hash, otherwise they are plain string keys under Prefix.
type Redis struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	Hash         string        `mapstructure:"hash"`
	Prefix       string        `mapstructure:"prefix"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
}

// Mongo configures a MongoDB backed resolver
type Mongo struct {
	URI        string `mapstructure:"uri" validate:"required"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
	KeyField   string `mapstructure:"key_field" validate:"required"`
	ValueField string `mapstructure:"value_field" validate:"required"`
}

// HTTP configures a resolver backed by a JSON batch endpoint
type HTTP struct {
	URL     string            `mapstructure:"url" validate:"required,url"`
	Headers map[string]string `mapstructure:"headers"`
	Breaker *Breaker          `mapstructure:"breaker"`
}

// Breaker configures the circuit breaker guarding an HTTP resolver
type Breaker struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// Cache wraps a resolver in a cache when present
type Cache struct {
	MaxEntries   int           `mapstructure:"max_entries" validate:"gte=0"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gte=0"`
	RefreshOnHit bool          `mapstructure:"refresh_on_hit"`
}

func getResolverConfigs(v *viper.Viper) ([]*Resolver, error) {
	if !v.IsSet("resolvers") {
		return nil, nil
	}
	var resolvers []*Resolver
	if err := v.UnmarshalKey("resolvers", &resolvers); err != nil {
		return nil, fmt.Errorf("failed to decode resolvers: %w", err)
	}
	return resolvers, nil
}
