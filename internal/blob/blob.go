// Package blob stores the raw bytes of uploaded files. The processing
// pipeline only ever reads; uploads write once and deletes remove.
package blob

import (
	"context"
	"io"
)

type Store interface {
	// Save writes the content under the key and returns the number of bytes
	// written.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	// Read returns the full content stored under the key.
	Read(ctx context.Context, key string) ([]byte, error)
	// Remove deletes the content stored under the key.
	Remove(ctx context.Context, key string) error
}
