package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

type aliyunStore struct {
	noopCloser
	client *oss.Client
	bucket string
}

func newAliyun(accessKeyID, secretAccessKey, region, bucket, endpoint string) *aliyunStore {
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey)).
		WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	return &aliyunStore{client: oss.NewClient(cfg), bucket: bucket}
}

func (s *aliyunStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(s.bucket),
		Key:    oss.Ptr(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return result.Body, nil
}
