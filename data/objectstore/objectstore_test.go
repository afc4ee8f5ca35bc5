package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/ecode"
)

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.ObjectStore
	}{
		{"nil", nil},
		{"minio without endpoint", &config.ObjectStore{Provider: "minio", ID: "id", Secret: "s", Bucket: "b"}},
		{"s3 without secret", &config.ObjectStore{Provider: "s3", ID: "id", Bucket: "b"}},
		{"azure without bucket", &config.ObjectStore{Provider: "azure", ID: "id", Secret: "s"}},
		{"tencent without app id", &config.ObjectStore{Provider: "tencent", ID: "id", Secret: "s", Bucket: "b"}},
		{"qiniu without domain", &config.ObjectStore{Provider: "qiniu", ID: "id", Secret: "s", Bucket: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg); !errors.Is(err, ecode.ErrConfiguration) {
				t.Errorf("err = %v, want ConfigurationError", err)
			}
		})
	}

	if _, err := New(context.Background(), &config.ObjectStore{Provider: "ftp", Bucket: "b"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("err = %v, want ErrUnsupportedProvider", err)
	}
}

func TestValidateDefaultsRegion(t *testing.T) {
	c := &config.ObjectStore{Provider: "s3", ID: "id", Secret: "s", Bucket: "b"}
	if err := validate(c); err != nil {
		t.Fatal(err)
	}
	if c.Region != "us-east-1" {
		t.Errorf("Region = %q", c.Region)
	}
}

func TestNewOfflineClients(t *testing.T) {
	stores := []*config.ObjectStore{
		{Provider: "minio", ID: "id", Secret: "s", Bucket: "b", Endpoint: "localhost:9000"},
		{Provider: "aliyun", ID: "id", Secret: "s", Bucket: "b"},
		{Provider: "tencent", ID: "id", Secret: "s", Bucket: "b", AppID: "1250000000"},
		{Provider: "qiniu", ID: "id", Secret: "s", Bucket: "b", Domain: "https://cdn.example.com"},
	}
	for _, cfg := range stores {
		s, err := New(context.Background(), cfg)
		if err != nil {
			t.Errorf("%s: %v", cfg.Provider, err)
			continue
		}
		if err := s.Close(); err != nil {
			t.Errorf("%s: Close: %v", cfg.Provider, err)
		}
	}
}
