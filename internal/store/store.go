package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emrgen/studydoc/internal/model"
)

type Store interface {
	DocumentStore
	SummaryStore
	FlashcardStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// ListDocuments retrieves the documents of an owner, newest first.
	ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]*model.Document, error)
	// UpdateDocument updates a document.
	UpdateDocument(ctx context.Context, doc *model.Document) error
	// DeleteDocument deletes a document and all derived records.
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	// ListDocumentsByStatusBefore retrieves documents in the given status last
	// updated before the cutoff.
	ListDocumentsByStatusBefore(ctx context.Context, status string, cutoff time.Time) ([]*model.Document, error)
}

type SummaryStore interface {
	// GetSummary retrieves the summary of a document.
	GetSummary(ctx context.Context, docID uuid.UUID) (*model.Summary, error)
	// SaveSummary creates the summary of a document, or replaces the content
	// of an existing one.
	SaveSummary(ctx context.Context, summary *model.Summary) error
}

type FlashcardStore interface {
	// ListFlashcards retrieves the flashcards of a document ordered by their
	// order index.
	ListFlashcards(ctx context.Context, docID uuid.UUID) ([]*model.Flashcard, error)
	// CountFlashcards counts the live flashcards of a document.
	CountFlashcards(ctx context.Context, docID uuid.UUID) (int64, error)
	// DeleteFlashcards deletes all flashcards of a document.
	DeleteFlashcards(ctx context.Context, docID uuid.UUID) error
	// CreateFlashcards inserts a batch of flashcards.
	CreateFlashcards(ctx context.Context, cards []*model.Flashcard) error
	// GetFlashcardSet retrieves the flashcard set of a document.
	GetFlashcardSet(ctx context.Context, docID uuid.UUID) (*model.FlashcardSet, error)
	// UpsertFlashcardSet creates the flashcard set of a document, or updates
	// the existing one in place.
	UpsertFlashcardSet(ctx context.Context, set *model.FlashcardSet) error
}
