package objectstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func newGCS(ctx context.Context, serviceAccountJSON, bucket string) (*gcsStore, error) {
	var opts []option.ClientOption
	if serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountJSON))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &gcsStore{client: client, bucket: client.Bucket(bucket)}, nil
}

func (s *gcsStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	reader, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	return reader, nil
}

func (s *gcsStore) Close() error { return s.client.Close() }
