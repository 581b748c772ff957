package storage

import (
	"context"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// BlobStore is the opaque upload storage keyed by path.
type BlobStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// WritableBlobStore also accepts new uploads.
type WritableBlobStore interface {
	BlobStore
	Write(ctx context.Context, path string, data []byte) error
}

// ReadExisting reads the blob at path, returning domain.ErrNotFound when it
// does not exist.
func ReadExisting(ctx context.Context, store BlobStore, path string) ([]byte, error) {
	ok, err := store.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat blob %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", path, domain.ErrNotFound)
	}
	data, err := store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}
