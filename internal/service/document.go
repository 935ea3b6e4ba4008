package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/emrgen/studydoc/internal/blob"
	"github.com/emrgen/studydoc/internal/cache"
	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/pipeline"
	"github.com/emrgen/studydoc/internal/provider"
	"github.com/emrgen/studydoc/internal/store"
)

// MaxUploadSize caps uploaded files at 10 MiB.
const MaxUploadSize = 10 * 1024 * 1024

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store store.Store, blobs blob.Store, cache cache.DocumentCache, pipe *pipeline.Pipeline) *DocumentService {
	return &DocumentService{
		store: store,
		blobs: blobs,
		cache: cache,
		pipe:  pipe,
	}
}

// DocumentService is the request-facing surface over documents: uploads,
// queries, deletion and the synchronous regenerate operations. Heavy work is
// handed to the pipeline.
type DocumentService struct {
	store store.Store
	blobs blob.Store
	cache cache.DocumentCache
	pipe  *pipeline.Pipeline
}

// DocumentDetail is a document together with its derived artifacts.
type DocumentDetail struct {
	Document   *model.Document
	Summary    *model.Summary
	Flashcards []*model.Flashcard
	Set        *model.FlashcardSet
}

// Upload stores the file, creates the document in status processing and
// enqueues a pipeline run. It returns as soon as the row is persisted.
func (d *DocumentService) Upload(ctx context.Context, ownerID uuid.UUID, filename string, size int64, r io.Reader) (*model.Document, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, ErrNotPDF
	}
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	docID := uuid.New()
	key := fmt.Sprintf("documents/%s/%s/%s", ownerID, docID, filename)

	written, err := d.blobs.Save(ctx, key, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if written > MaxUploadSize {
		if err := d.blobs.Remove(ctx, key); err != nil {
			logrus.Warnf("failed to remove oversized upload %s: %v", key, err)
		}
		return nil, ErrFileTooLarge
	}

	doc := &model.Document{
		ID:          docID.String(),
		OwnerID:     ownerID.String(),
		Title:       filename,
		FileName:    filename,
		StoragePath: key,
		FileSize:    written,
		Status:      model.StatusProcessing,
	}

	if err := d.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	d.invalidate(ctx, doc.OwnerID)

	if err := d.pipe.Enqueue(ctx, docID); err != nil {
		logrus.Errorf("failed to enqueue document %s: %v", docID, err)
	}

	return doc, nil
}

// List retrieves the owner's documents, newest first.
func (d *DocumentService) List(ctx context.Context, ownerID uuid.UUID) ([]*model.Document, error) {
	if docs, err := d.cache.GetDocuments(ctx, ownerID.String()); err == nil && docs != nil {
		return docs, nil
	} else if err != nil {
		logrus.Warnf("document cache read failed for owner %s: %v", ownerID, err)
	}

	docs, err := d.store.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := d.cache.SetDocuments(ctx, ownerID.String(), docs); err != nil {
		logrus.Warnf("document cache write failed for owner %s: %v", ownerID, err)
	}

	return docs, nil
}

// Get retrieves one document with its summary and ordered flashcards.
func (d *DocumentService) Get(ctx context.Context, ownerID, docID uuid.UUID) (*DocumentDetail, error) {
	doc, err := d.owned(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{Document: doc}

	if summary, err := d.store.GetSummary(ctx, docID); err == nil {
		detail.Summary = summary
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cards, err := d.store.ListFlashcards(ctx, docID)
	if err != nil {
		return nil, err
	}
	detail.Flashcards = cards

	if set, err := d.store.GetFlashcardSet(ctx, docID); err == nil {
		detail.Set = set
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return detail, nil
}

// Delete removes the document, its derived records and the stored file.
func (d *DocumentService) Delete(ctx context.Context, ownerID, docID uuid.UUID) error {
	doc, err := d.owned(ctx, ownerID, docID)
	if err != nil {
		return err
	}

	if err := d.store.DeleteDocument(ctx, docID); err != nil {
		return err
	}

	if doc.StoragePath != "" {
		if err := d.blobs.Remove(ctx, doc.StoragePath); err != nil {
			logrus.Warnf("failed to remove stored file %s: %v", doc.StoragePath, err)
		}
	}

	d.invalidate(ctx, doc.OwnerID)

	return nil
}

// RegenerateFlashcards replaces the document's flashcards with count freshly
// generated ones. Unlike the initial run it is synchronous and propagates
// provider errors to the caller. The document status is not changed.
func (d *DocumentService) RegenerateFlashcards(ctx context.Context, ownerID, docID uuid.UUID, count int) ([]*model.Flashcard, error) {
	if count < provider.MinFlashcards || count > provider.MaxFlashcards {
		return nil, ErrInvalidCardCount
	}

	doc, err := d.owned(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	if doc.ExtractedText == "" {
		return nil, ErrDocumentNotReady
	}

	return d.pipe.RegenerateFlashcards(ctx, doc, count)
}

// RegenerateSummary replaces the content of the document's summary.
func (d *DocumentService) RegenerateSummary(ctx context.Context, ownerID, docID uuid.UUID) (*model.Summary, error) {
	doc, err := d.owned(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	if doc.ExtractedText == "" {
		return nil, ErrDocumentNotReady
	}

	return d.pipe.RegenerateSummary(ctx, doc)
}

func (d *DocumentService) owned(ctx context.Context, ownerID, docID uuid.UUID) (*model.Document, error) {
	doc, err := d.store.GetDocument(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	if doc.OwnerID != ownerID.String() {
		return nil, ErrNotDocumentOwner
	}

	return doc, nil
}

func (d *DocumentService) invalidate(ctx context.Context, ownerID string) {
	if err := d.cache.Invalidate(ctx, ownerID); err != nil {
		logrus.Warnf("failed to invalidate document cache for owner %s: %v", ownerID, err)
	}
}
