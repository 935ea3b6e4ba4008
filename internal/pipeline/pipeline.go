// Package pipeline drives a document from processing to a terminal status:
// extract text, generate a summary and flashcards, persist the artifacts and
// notify the owner. Runs are detached from the upload request; no error ever
// crosses the pipeline's outer boundary.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/studydoc/internal/blob"
	"github.com/emrgen/studydoc/internal/cache"
	"github.com/emrgen/studydoc/internal/compress"
	"github.com/emrgen/studydoc/internal/extract"
	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/notify"
	"github.com/emrgen/studydoc/internal/provider"
	"github.com/emrgen/studydoc/internal/store"
)

// ExtractFunc pulls text and a page count out of a PDF byte stream.
type ExtractFunc func(content []byte) (extract.Result, error)

// Config wires the collaborators of a Pipeline.
type Config struct {
	Store    store.Store
	Blobs    blob.Store
	Provider provider.Provider
	Notifier notify.Notifier
	Cache    cache.DocumentCache
	Codec    compress.Compress

	// Extract defaults to extract.PDF.
	Extract ExtractFunc

	// Workers is the number of concurrent runs, QueueSize the backlog bound.
	Workers   int
	QueueSize int
}

// Pipeline processes documents on a bounded worker pool. At most one run is
// active or queued per document at any time.
type Pipeline struct {
	store    store.Store
	blobs    blob.Store
	provider provider.Provider
	notifier notify.Notifier
	cache    cache.DocumentCache
	codec    compress.Compress
	extract  ExtractFunc

	queue  chan uuid.UUID
	active mapset.Set[string]
	wg     sync.WaitGroup
}

func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Extract == nil {
		cfg.Extract = extract.PDF
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNopDocumentCache()
	}
	if cfg.Codec == nil {
		cfg.Codec = compress.NewNop()
	}

	p := &Pipeline{
		store:    cfg.Store,
		blobs:    cfg.Blobs,
		provider: cfg.Provider,
		notifier: cfg.Notifier,
		cache:    cfg.Cache,
		codec:    cfg.Codec,
		extract:  cfg.Extract,
		queue:    make(chan uuid.UUID, cfg.QueueSize),
		active:   mapset.NewSet[string](),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}

	return p
}

// Enqueue schedules a full processing run for the document. A document that
// is already queued or running is not scheduled twice.
func (p *Pipeline) Enqueue(ctx context.Context, id uuid.UUID) error {
	if !p.active.Add(id.String()) {
		logrus.Warnf("document %s is already being processed", id)
		return nil
	}

	select {
	case p.queue <- id:
		return nil
	case <-ctx.Done():
		p.active.Remove(id.String())
		return ctx.Err()
	}
}

// Stop drains the queue and waits for in-flight runs to reach a terminal
// state. No new runs can be enqueued afterwards.
func (p *Pipeline) Stop() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for id := range p.queue {
		p.Run(context.Background(), id)
		p.active.Remove(id.String())
	}
}

// Run executes one full processing run. It never returns an error: every
// failure path transitions the document to failed, and even that update is
// best-effort.
func (p *Pipeline) Run(ctx context.Context, id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic processing document %s: %v", id, r)
			if doc, err := p.store.GetDocument(ctx, id); err == nil {
				p.fail(ctx, doc, fmt.Sprintf("unexpected error: %v", r))
			}
		}
	}()

	doc, err := p.store.GetDocument(ctx, id)
	if err != nil {
		// nothing to transition
		logrus.Errorf("document %s not found, skipping run: %v", id, err)
		return
	}

	logrus.Infof("processing document %s (%s)", doc.ID, doc.Title)

	content, err := p.blobs.Read(ctx, doc.StoragePath)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("read stored file: %v", err))
		return
	}

	res, err := p.extract(content)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("extract text: %v", err))
		return
	}

	// durable progress: text and page count survive a later provider failure
	if err := p.persistExtraction(ctx, doc, res); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("persist extracted text: %v", err))
		return
	}

	summary, err := p.provider.Summarize(ctx, res.Text)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("generate summary: %v", err))
		return
	}

	record, err := summaryModel(doc.ID, summary)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("encode summary: %v", err))
		return
	}
	if err := p.store.SaveSummary(ctx, record); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("persist summary: %v", err))
		return
	}

	cards, err := p.provider.GenerateFlashcards(ctx, res.Text, provider.DefaultFlashcards)
	if err != nil {
		p.fail(ctx, doc, fmt.Sprintf("generate flashcards: %v", err))
		return
	}

	if _, err := p.replaceFlashcards(ctx, doc, cards); err != nil {
		p.fail(ctx, doc, fmt.Sprintf("persist flashcards: %v", err))
		return
	}

	now := time.Now()
	doc.Status = model.StatusCompleted
	doc.FailReason = ""
	doc.ProcessedAt = &now
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		logrus.Errorf("failed to complete document %s: %v", doc.ID, err)
		return
	}

	p.invalidate(ctx, doc.OwnerID)
	p.notify(ctx, doc)

	logrus.Infof("document %s processed: %d pages, %d flashcards", doc.ID, doc.Pages, len(cards))
}

// RegenerateFlashcards replaces the document's flashcards with a freshly
// generated set of exactly count cards. The document status is not touched.
// Provider errors propagate to the caller.
func (p *Pipeline) RegenerateFlashcards(ctx context.Context, doc *model.Document, count int) ([]*model.Flashcard, error) {
	text, err := p.storedText(doc)
	if err != nil {
		return nil, err
	}

	cards, err := p.provider.GenerateFlashcards(ctx, text, count)
	if err != nil {
		return nil, err
	}

	records, err := p.replaceFlashcards(ctx, doc, cards)
	if err != nil {
		return nil, err
	}

	p.invalidate(ctx, doc.OwnerID)
	p.notify(ctx, doc)

	return records, nil
}

// RegenerateSummary replaces the content of the document's summary. The
// document status is not touched. Provider errors propagate to the caller.
func (p *Pipeline) RegenerateSummary(ctx context.Context, doc *model.Document) (*model.Summary, error) {
	text, err := p.storedText(doc)
	if err != nil {
		return nil, err
	}

	summary, err := p.provider.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	record, err := summaryModel(doc.ID, summary)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveSummary(ctx, record); err != nil {
		return nil, err
	}

	p.invalidate(ctx, doc.OwnerID)
	p.notify(ctx, doc)

	return record, nil
}

func (p *Pipeline) persistExtraction(ctx context.Context, doc *model.Document, res extract.Result) error {
	encoded, err := p.codec.Encode([]byte(provider.Truncate(res.Text, model.MaxStoredTextLen)))
	if err != nil {
		return err
	}

	doc.ExtractedText = string(encoded)
	doc.Pages = res.Pages
	return p.store.UpdateDocument(ctx, doc)
}

// storedText decodes the extracted text prefix persisted on the document.
func (p *Pipeline) storedText(doc *model.Document) (string, error) {
	if doc.ExtractedText == "" {
		return "", fmt.Errorf("document %s has no extracted text", doc.ID)
	}
	decoded, err := p.codec.Decode([]byte(doc.ExtractedText))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// replaceFlashcards atomically swaps the document's flashcards for the new
// set: a concurrent reader observes either the full old set or the full new
// one, never a mix.
func (p *Pipeline) replaceFlashcards(ctx context.Context, doc *model.Document, cards []provider.Flashcard) ([]*model.Flashcard, error) {
	records := make([]*model.Flashcard, len(cards))
	for i, card := range cards {
		records[i] = &model.Flashcard{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Question:   card.Question,
			Answer:     card.Answer,
			Difficulty: card.Difficulty,
			OrderIndex: i,
		}
	}

	err := p.store.Transaction(ctx, func(tx store.Store) error {
		docID := uuid.MustParse(doc.ID)
		if err := tx.DeleteFlashcards(ctx, docID); err != nil {
			return err
		}
		if err := tx.CreateFlashcards(ctx, records); err != nil {
			return err
		}
		return tx.UpsertFlashcardSet(ctx, &model.FlashcardSet{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Name:       doc.Title,
			CardCount:  len(records),
			IsActive:   true,
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (p *Pipeline) fail(ctx context.Context, doc *model.Document, reason string) {
	logrus.Errorf("document %s failed: %s", doc.ID, reason)

	doc.Status = model.StatusFailed
	doc.FailReason = reason
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		// the run is already lost; swallow so nothing crosses the boundary
		logrus.Errorf("failed to mark document %s as failed: %v", doc.ID, err)
		return
	}

	p.invalidate(ctx, doc.OwnerID)
	p.notify(ctx, doc)
}

func (p *Pipeline) invalidate(ctx context.Context, ownerID string) {
	if err := p.cache.Invalidate(ctx, ownerID); err != nil {
		logrus.Warnf("failed to invalidate document cache for owner %s: %v", ownerID, err)
	}
}

func (p *Pipeline) notify(ctx context.Context, doc *model.Document) {
	event := notify.Event{
		Type:     notify.EventDocumentUpdate,
		Document: p.projection(ctx, doc),
	}
	if err := p.notifier.Notify(ctx, doc.OwnerID, event); err != nil {
		logrus.Warnf("failed to notify owner %s about document %s: %v", doc.OwnerID, doc.ID, err)
	}
}

func (p *Pipeline) projection(ctx context.Context, doc *model.Document) notify.DocumentProjection {
	docID := uuid.MustParse(doc.ID)

	count, err := p.store.CountFlashcards(ctx, docID)
	if err != nil {
		logrus.Warnf("failed to count flashcards for document %s: %v", doc.ID, err)
	}

	hasSummary := false
	if _, err := p.store.GetSummary(ctx, docID); err == nil {
		hasSummary = true
	}

	return notify.DocumentProjection{
		ID:             doc.ID,
		Title:          doc.Title,
		Status:         doc.Status,
		Pages:          doc.Pages,
		FlashcardCount: int(count),
		HasSummary:     hasSummary,
		FailReason:     doc.FailReason,
		ProcessedAt:    doc.ProcessedAt,
	}
}

func summaryModel(docID string, summary *provider.Summary) (*model.Summary, error) {
	record := &model.Summary{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Body:       summary.Body,
	}

	if err := record.SetKeyPoints(summary.KeyPoints); err != nil {
		return nil, err
	}
	if err := record.SetInsights(summary.Insights); err != nil {
		return nil, err
	}

	examples := make([]model.SummaryExample, len(summary.Examples))
	for i, example := range summary.Examples {
		examples[i] = model.SummaryExample{
			Title:       example.Title,
			Description: example.Description,
			Code:        example.Code,
		}
	}
	if err := record.SetExamples(examples); err != nil {
		return nil, err
	}

	return record, nil
}
