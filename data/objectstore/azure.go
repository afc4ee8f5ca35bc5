package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

type azureStore struct {
	noopCloser
	client    *azblob.Client
	container string
}

func newAzure(accountName, accountKey, container string) (*azureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return &azureStore{client: client, container: container}, nil
}

func (s *azureStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(path)
	resp, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}
