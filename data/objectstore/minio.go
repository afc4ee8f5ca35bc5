package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStore struct {
	noopCloser
	client *minio.Client
	bucket string
}

func newMinio(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool) (*minioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &minioStore{client: client, bucket: bucket}, nil
}

func (s *minioStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	// GetObject is lazy, Stat surfaces a missing object here
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return object, nil
}
