package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/emrgen/studydoc/internal/extract"
	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/notify"
	"github.com/emrgen/studydoc/internal/provider"
	"github.com/emrgen/studydoc/internal/store"
	"github.com/emrgen/studydoc/internal/tester"
)

type memBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}}
}

func (m *memBlobs) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return int64(len(data)), nil
}

func (m *memBlobs) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("no blob under key %s", key)
	}
	return data, nil
}

func (m *memBlobs) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

type fakeProvider struct {
	mu             sync.Mutex
	summarizeErr   error
	flashcardsErr  error
	summarizeCalls int
	flashcardCalls int
	lastCount      int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Summarize(ctx context.Context, text string) (*provider.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return nil, f.summarizeErr
	}
	return &provider.Summary{
		Body:      "summary of " + provider.Truncate(text, 20),
		KeyPoints: []string{"point one", "point two"},
		Insights:  []string{"insight"},
	}, nil
}

func (f *fakeProvider) GenerateFlashcards(ctx context.Context, text string, count int) ([]provider.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashcardCalls++
	f.lastCount = count
	if f.flashcardsErr != nil {
		return nil, f.flashcardsErr
	}
	count = provider.ClampCount(count)
	cards := make([]provider.Flashcard, count)
	for i := range cards {
		cards[i] = provider.Flashcard{
			Question:   fmt.Sprintf("question %d", i),
			Answer:     fmt.Sprintf("answer %d", i),
			Difficulty: "medium",
		}
	}
	return cards, nil
}

type eventSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *eventSink) notifier() notify.Notifier {
	return notify.NotifierFunc(func(ctx context.Context, ownerID string, event notify.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, event)
		return nil
	})
}

func (s *eventSink) last() (notify.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return notify.Event{}, false
	}
	return s.events[len(s.events)-1], true
}

type fixture struct {
	store    store.Store
	blobs    *memBlobs
	provider *fakeProvider
	sink     *eventSink
	pipe     *Pipeline
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	tester.RemoveDBFile()
	tester.Setup()

	fx := &fixture{
		blobs:    newMemBlobs(),
		provider: &fakeProvider{},
		sink:     &eventSink{},
	}
	fx.store = store.NewGormStore(tester.TestDB())

	cfg.Store = fx.store
	cfg.Blobs = fx.blobs
	cfg.Provider = fx.provider
	cfg.Notifier = fx.sink.notifier()
	if cfg.Extract == nil {
		cfg.Extract = func(content []byte) (extract.Result, error) {
			return extract.Result{Text: string(content), Pages: 3}, nil
		}
	}
	fx.pipe = New(cfg)
	t.Cleanup(fx.pipe.Stop)

	return fx
}

func (fx *fixture) seedDocument(t *testing.T, content string) *model.Document {
	t.Helper()

	doc := &model.Document{
		ID:          uuid.New().String(),
		OwnerID:     uuid.New().String(),
		Title:       "lecture notes",
		FileName:    "notes.pdf",
		StoragePath: "documents/" + uuid.New().String(),
		FileSize:    int64(len(content)),
		Status:      model.StatusProcessing,
	}
	_, err := fx.blobs.Save(context.TODO(), doc.StoragePath, bytes.NewReader([]byte(content)))
	assert.NoError(t, err)
	assert.NoError(t, fx.store.CreateDocument(context.TODO(), doc))

	return doc
}

func TestPipeline_Run(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "the document text")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))

	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Pages)
	assert.NotNil(t, got.ProcessedAt)
	assert.Empty(t, got.FailReason)
	assert.Contains(t, got.ExtractedText, "the document text")

	summary, err := fx.store.GetSummary(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Contains(t, summary.Body, "summary of")

	cards, err := fx.store.ListFlashcards(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Len(t, cards, provider.DefaultFlashcards)
	for i, card := range cards {
		assert.Equal(t, i, card.OrderIndex)
	}

	set, err := fx.store.GetFlashcardSet(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, provider.DefaultFlashcards, set.CardCount)
	assert.Equal(t, doc.Title, set.Name)
	assert.True(t, set.IsActive)

	event, ok := fx.sink.last()
	assert.True(t, ok)
	assert.Equal(t, notify.EventDocumentUpdate, event.Type)
	assert.Equal(t, model.StatusCompleted, event.Document.Status)
	assert.Equal(t, provider.DefaultFlashcards, event.Document.FlashcardCount)
	assert.True(t, event.Document.HasSummary)
}

func TestPipeline_Run_ExtractionFailure(t *testing.T) {
	fx := newFixture(t, Config{
		Extract: func(content []byte) (extract.Result, error) {
			return extract.Result{}, extract.ErrNoText
		},
	})
	doc := fx.seedDocument(t, "scanned pages")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))

	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Contains(t, got.FailReason, "extract text")
	assert.Nil(t, got.ProcessedAt)

	// no artifacts for a failed run
	_, err = fx.store.GetSummary(ctx, uuid.MustParse(doc.ID))
	assert.Error(t, err)
	count, err := fx.store.CountFlashcards(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// the provider was never consulted
	assert.Equal(t, 0, fx.provider.summarizeCalls)

	event, ok := fx.sink.last()
	assert.True(t, ok)
	assert.Equal(t, model.StatusFailed, event.Document.Status)
	assert.NotEmpty(t, event.Document.FailReason)
}

func TestPipeline_Run_ProviderFailureKeepsExtractedText(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.provider.summarizeErr = &provider.Error{Provider: "fake", Op: "summarize", Err: errors.New("rate limited")}
	doc := fx.seedDocument(t, "the document text")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))

	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Contains(t, got.FailReason, "generate summary")

	// extraction progress survives the provider failure
	assert.Equal(t, 3, got.Pages)
	assert.Contains(t, got.ExtractedText, "the document text")
}

func TestPipeline_Run_MissingBlob(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "content")
	assert.NoError(t, fx.blobs.Remove(context.TODO(), doc.StoragePath))

	fx.pipe.Run(context.TODO(), uuid.MustParse(doc.ID))

	got, err := fx.store.GetDocument(context.TODO(), uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Contains(t, got.FailReason, "read stored file")
}

func TestPipeline_Run_UnknownDocument(t *testing.T) {
	fx := newFixture(t, Config{})

	// must not panic or emit events
	fx.pipe.Run(context.TODO(), uuid.New())

	_, ok := fx.sink.last()
	assert.False(t, ok)
}

func TestPipeline_Enqueue(t *testing.T) {
	fx := newFixture(t, Config{Workers: 2})
	doc := fx.seedDocument(t, "queued text")
	ctx := context.TODO()

	assert.NoError(t, fx.pipe.Enqueue(ctx, uuid.MustParse(doc.ID)))

	assert.Eventually(t, func() bool {
		got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
		return err == nil && got.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestPipeline_EnqueueDeduplicates(t *testing.T) {
	// no workers draining the queue, so the dedupe window stays open
	p := &Pipeline{
		queue:  make(chan uuid.UUID, 8),
		active: mapset.NewSet[string](),
	}
	ctx := context.TODO()

	id := uuid.New()
	assert.NoError(t, p.Enqueue(ctx, id))
	assert.NoError(t, p.Enqueue(ctx, id))
	assert.NoError(t, p.Enqueue(ctx, id))

	assert.Equal(t, 1, len(p.queue))
	assert.Equal(t, 1, p.active.Cardinality())

	// a different document is still accepted
	assert.NoError(t, p.Enqueue(ctx, uuid.New()))
	assert.Equal(t, 2, len(p.queue))
}

func TestPipeline_RegenerateFlashcards(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "the document text")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))
	doc, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)

	records, err := fx.pipe.RegenerateFlashcards(ctx, doc, 15)
	assert.NoError(t, err)
	assert.Len(t, records, 15)
	assert.Equal(t, 15, fx.provider.lastCount)

	// the old set is fully replaced, orders contiguous from zero
	cards, err := fx.store.ListFlashcards(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Len(t, cards, 15)
	for i, card := range cards {
		assert.Equal(t, i, card.OrderIndex)
	}

	set, err := fx.store.GetFlashcardSet(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, 15, set.CardCount)

	// status untouched by regeneration
	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestPipeline_RegenerateFlashcards_ProviderError(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "the document text")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))
	doc, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)

	fx.provider.flashcardsErr = &provider.Error{Provider: "fake", Op: "generate flashcards", Err: errors.New("down")}
	_, err = fx.pipe.RegenerateFlashcards(ctx, doc, 15)
	assert.Error(t, err)

	// the previous set survives a failed regeneration
	count, err := fx.store.CountFlashcards(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, int64(provider.DefaultFlashcards), count)

	got, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestPipeline_RegenerateSummary(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "the document text")
	ctx := context.TODO()

	fx.pipe.Run(ctx, uuid.MustParse(doc.ID))
	doc, err := fx.store.GetDocument(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)

	first, err := fx.store.GetSummary(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)

	record, err := fx.pipe.RegenerateSummary(ctx, doc)
	assert.NoError(t, err)
	assert.NotNil(t, record)

	// identity is stable across regenerations
	second, err := fx.store.GetSummary(ctx, uuid.MustParse(doc.ID))
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 2, fx.provider.summarizeCalls)
}

func TestPipeline_RegenerateWithoutExtractedText(t *testing.T) {
	fx := newFixture(t, Config{})
	doc := fx.seedDocument(t, "content")

	_, err := fx.pipe.RegenerateFlashcards(context.TODO(), doc, 15)
	assert.Error(t, err)

	_, err = fx.pipe.RegenerateSummary(context.TODO(), doc)
	assert.Error(t, err)
}
