// Package cache keeps hot read paths off the database. The document list of
// an owner is cached in redis and invalidated on every mutation of one of
// their documents.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/emrgen/studydoc/internal/model"
)

const documentListTTL = time.Hour

func ownerListKey(ownerID string) string {
	return "documents:list:" + ownerID
}

// DocumentCache caches per-owner document listings.
type DocumentCache interface {
	// GetDocuments returns the cached listing of an owner, or nil on a miss.
	GetDocuments(ctx context.Context, ownerID string) ([]*model.Document, error)
	// SetDocuments caches the listing of an owner.
	SetDocuments(ctx context.Context, ownerID string, docs []*model.Document) error
	// Invalidate drops the cached listing of an owner.
	Invalidate(ctx context.Context, ownerID string) error
}

var _ DocumentCache = (*RedisDocumentCache)(nil)

type RedisDocumentCache struct {
	client *redis.Client
}

func NewRedisDocumentCache(client *redis.Client) *RedisDocumentCache {
	return &RedisDocumentCache{client: client}
}

func (r *RedisDocumentCache) GetDocuments(ctx context.Context, ownerID string) ([]*model.Document, error) {
	res := r.client.Get(ctx, ownerListKey(ownerID))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	var docs []*model.Document
	if err := json.Unmarshal(buf, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *RedisDocumentCache) SetDocuments(ctx context.Context, ownerID string, docs []*model.Document) error {
	buf, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, ownerListKey(ownerID), buf, documentListTTL).Err()
}

func (r *RedisDocumentCache) Invalidate(ctx context.Context, ownerID string) error {
	return r.client.Del(ctx, ownerListKey(ownerID)).Err()
}
