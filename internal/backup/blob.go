// Package backup serializes the full entity set to a cloud object store and
// restores it back, replacing local data wholesale.
package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// BlobStore abstracts the object store so the service can be tested against
// an in-memory fake.
type BlobStore interface {
	Put(ctx context.Context, object string, data []byte) error
	Get(ctx context.Context, object string) ([]byte, error)
}

// GCSBlobStore writes snapshot objects to a Google Cloud Storage bucket.
// It assumes Application Default Credentials are configured.
type GCSBlobStore struct {
	bucket string
}

// NewGCSBlobStore creates a blob store on the given bucket.
func NewGCSBlobStore(bucket string) *GCSBlobStore {
	return &GCSBlobStore{bucket: bucket}
}

// Put uploads one object. The write gets its own timeout so a stalled
// upload cannot hang a backup job indefinitely.
func (g *GCSBlobStore) Put(ctx context.Context, object string, data []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", object, err)
	}
	return nil
}

// Get downloads one object in full.
func (g *GCSBlobStore) Get(ctx context.Context, object string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(g.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", object, err)
	}
	return data, nil
}

var _ BlobStore = (*GCSBlobStore)(nil)
