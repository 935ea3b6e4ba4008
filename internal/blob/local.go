package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

var _ Store = (*Local)(nil)

// Local stores blobs as files under a root directory.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *Local) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	path := l.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return n, err
	}

	return n, f.Close()
}

func (l *Local) Read(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(l.path(key))
}

func (l *Local) Remove(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil {
		return err
	}
	// prune the per-document directory if it is now empty
	_ = os.Remove(filepath.Dir(l.path(key)))
	return nil
}
