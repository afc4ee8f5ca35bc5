package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qiniu/go-sdk/v7/auth"
	"github.com/qiniu/go-sdk/v7/storage"
)

const qiniuURLTTL = time.Hour

// qiniuStore downloads through signed URLs of the bucket's domain
type qiniuStore struct {
	noopCloser
	mac    *auth.Credentials
	domain string
	client *http.Client
}

func newQiniu(accessKey, secretKey, domain string) *qiniuStore {
	return &qiniuStore{mac: auth.New(accessKey, secretKey), domain: domain, client: http.DefaultClient}
}

func (s *qiniuStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	deadline := time.Now().Add(qiniuURLTTL).Unix()
	privateURL := storage.MakePrivateURL(s.mac, s.domain, path, deadline)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, privateURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to get object: status code %d", resp.StatusCode)
	}
	return resp.Body, nil
}
