package cache

import (
	"context"

	"github.com/emrgen/studydoc/internal/model"
)

var _ DocumentCache = (*NopDocumentCache)(nil)

// NopDocumentCache misses every read. Used when redis is not configured and
// in tests.
type NopDocumentCache struct {
}

func NewNopDocumentCache() *NopDocumentCache {
	return &NopDocumentCache{}
}

func (n *NopDocumentCache) GetDocuments(ctx context.Context, ownerID string) ([]*model.Document, error) {
	return nil, nil
}

func (n *NopDocumentCache) SetDocuments(ctx context.Context, ownerID string, docs []*model.Document) error {
	return nil
}

func (n *NopDocumentCache) Invalidate(ctx context.Context, ownerID string) error {
	return nil
}
