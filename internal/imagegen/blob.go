package imagegen

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// BlobPublisher uploads saved images to an Azure Storage container.
type BlobPublisher struct {
	client *container.Client
}

// NewBlobPublisher creates a publisher for the container at containerURL,
// e.g. https://account.blob.core.windows.net/images.
func NewBlobPublisher(containerURL string, cred azcore.TokenCredential, options *container.ClientOptions) (*BlobPublisher, error) {
	client, err := container.NewClient(containerURL, cred, options)
	if err != nil {
		return nil, fmt.Errorf("creating container client: %w", err)
	}
	return &BlobPublisher{client: client}, nil
}

// Publish uploads data as a PNG block blob and returns its URL.
func (p *BlobPublisher) Publish(ctx context.Context, name string, data []byte) (string, error) {
	bb := p.client.NewBlockBlobClient(name)
	_, err := bb.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("image/png"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return bb.URL(), nil
}
