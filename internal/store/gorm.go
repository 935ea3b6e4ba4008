package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emrgen/studydoc/internal/model"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("created_at desc").
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Save(doc).Error
}

// DeleteDocument removes the document row together with its summary,
// flashcards and flashcard set in a single transaction.
func (g *GormStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id.String()).Delete(&model.Flashcard{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id.String()).Delete(&model.FlashcardSet{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id.String()).Delete(&model.Summary{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id.String()).Delete(&model.Document{}).Error
	})
}

func (g *GormStore) ListDocumentsByStatusBefore(ctx context.Context, status string, cutoff time.Time) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, cutoff).
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) GetSummary(ctx context.Context, docID uuid.UUID) (*model.Summary, error) {
	var summary model.Summary
	err := g.db.WithContext(ctx).Where("document_id = ?", docID.String()).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveSummary keeps the one-summary-per-document invariant: an existing row
// is updated in place so the summary identity is stable across regenerations.
func (g *GormStore) SaveSummary(ctx context.Context, summary *model.Summary) error {
	var existing model.Summary
	err := g.db.WithContext(ctx).Where("document_id = ?", summary.DocumentID).First(&existing).Error
	if err == nil {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
		return g.db.WithContext(ctx).Save(summary).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return g.db.WithContext(ctx).Create(summary).Error
}

func (g *GormStore) ListFlashcards(ctx context.Context, docID uuid.UUID) ([]*model.Flashcard, error) {
	var cards []*model.Flashcard
	err := g.db.WithContext(ctx).
		Where("document_id = ?", docID.String()).
		Order("order_index asc").
		Find(&cards).Error
	return cards, err
}

func (g *GormStore) CountFlashcards(ctx context.Context, docID uuid.UUID) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&model.Flashcard{}).
		Where("document_id = ?", docID.String()).
		Count(&count).Error
	return count, err
}

func (g *GormStore) DeleteFlashcards(ctx context.Context, docID uuid.UUID) error {
	return g.db.WithContext(ctx).Where("document_id = ?", docID.String()).Delete(&model.Flashcard{}).Error
}

func (g *GormStore) CreateFlashcards(ctx context.Context, cards []*model.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Create(cards).Error
}

func (g *GormStore) GetFlashcardSet(ctx context.Context, docID uuid.UUID) (*model.FlashcardSet, error) {
	var set model.FlashcardSet
	err := g.db.WithContext(ctx).Where("document_id = ?", docID.String()).First(&set).Error
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (g *GormStore) UpsertFlashcardSet(ctx context.Context, set *model.FlashcardSet) error {
	var existing model.FlashcardSet
	err := g.db.WithContext(ctx).Where("document_id = ?", set.DocumentID).First(&existing).Error
	if err == nil {
		set.ID = existing.ID
		set.CreatedAt = existing.CreatedAt
		return g.db.WithContext(ctx).Save(set).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return g.db.WithContext(ctx).Create(set).Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
