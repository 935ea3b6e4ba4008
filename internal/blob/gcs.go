package blob

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

var _ Store = (*GCS)(nil)

// GCS stores blobs as objects in a Google Cloud Storage bucket.
type GCS struct {
	bucket *storage.BucketHandle
}

func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs: bucket name cannot be empty")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	return &GCS{bucket: client.Bucket(bucketName)}, nil
}

// Save writes the object only if it does not already exist; an upload is
// never overwritten in place.
func (g *GCS) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	w := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("failed to write to gcs: %w", err)
	}

	if err := w.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			logrus.Warnf("gcs object %s already exists, skipping", key)
			return n, nil
		}
		return n, fmt.Errorf("failed to finalize gcs write: %w", err)
	}

	return n, nil
}

func (g *GCS) Read(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (g *GCS) Remove(ctx context.Context, key string) error {
	return g.bucket.Object(key).Delete(ctx)
}
