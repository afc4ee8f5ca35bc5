package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type tencentStore struct {
	noopCloser
	client *cos.Client
}

func newTencent(secretID, secretKey, region, bucket, appID string) (*tencentStore, error) {
	u, err := url.Parse(fmt.Sprintf("https://%s-%s.cos.%s.myqcloud.com", bucket, appID, region))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})
	return &tencentStore{client: client}, nil
}

func (s *tencentStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return resp.Body, nil
}
