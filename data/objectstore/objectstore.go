// Package objectstore reads lookup files from object storage. Providers:
// minio, s3 (and S3 compatible endpoints), gcs, azure, aliyun, tencent
// and qiniu.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/ecode"
)

// ErrUnsupportedProvider is returned for unknown provider names
var ErrUnsupportedProvider = errors.New("unsupported object storage provider")

// Store opens objects of one bucket
type Store interface {
	// Open returns the content of the object at path. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Close releases the client
	Close() error
}

// New creates the store described by cfg, filling in default regions
func New(ctx context.Context, cfg *config.ObjectStore) (Store, error) {
	if cfg == nil {
		return nil, &ecode.ConfigurationError{Field: "store", Message: "object store configuration is nil"}
	}
	c := *cfg
	if err := validate(&c); err != nil {
		return nil, err
	}

	switch c.Provider {
	case "minio":
		return newMinio(c.Endpoint, c.ID, c.Secret, c.Bucket, c.UseSSL)
	case "s3":
		return newS3(ctx, c.ID, c.Secret, c.Region, c.Bucket, c.Endpoint)
	case "gcs":
		return newGCS(ctx, c.ServiceAccountJSON, c.Bucket)
	case "azure":
		return newAzure(c.ID, c.Secret, c.Bucket)
	case "aliyun":
		return newAliyun(c.ID, c.Secret, c.Region, c.Bucket, c.Endpoint), nil
	case "tencent":
		return newTencent(c.ID, c.Secret, c.Region, c.Bucket, c.AppID)
	case "qiniu":
		return newQiniu(c.ID, c.Secret, c.Domain), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, c.Provider)
}

func validate(c *config.ObjectStore) error {
	required := func(fields ...string) error {
		return &ecode.ConfigurationError{Field: "store", Message: fmt.Sprintf("%v are required for %s", fields, c.Provider)}
	}

	switch c.Provider {
	case "minio":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
			return required("id", "secret", "bucket", "endpoint")
		}
	case "s3":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" {
			return required("id", "secret", "bucket")
		}
		if c.Region == "" {
			c.Region = "us-east-1"
		}
	case "gcs":
		if c.Bucket == "" {
			return required("bucket")
		}
	case "azure":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" {
			return required("id", "secret", "bucket")
		}
	case "aliyun":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" {
			return required("id", "secret", "bucket")
		}
		if c.Region == "" {
			c.Region = "cn-hangzhou"
		}
	case "tencent":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" || c.AppID == "" {
			return required("id", "secret", "bucket", "app_id")
		}
		if c.Region == "" {
			c.Region = "ap-guangzhou"
		}
	case "qiniu":
		if c.ID == "" || c.Secret == "" || c.Bucket == "" || c.Domain == "" {
			return required("id", "secret", "bucket", "domain")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
	return nil
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
