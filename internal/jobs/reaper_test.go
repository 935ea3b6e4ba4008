package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/emrgen/studydoc/internal/cache"
	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/notify"
	"github.com/emrgen/studydoc/internal/store"
	"github.com/emrgen/studydoc/internal/tester"
)

func seedDocument(t *testing.T, db store.Store, status string, age time.Duration) *model.Document {
	t.Helper()

	doc := &model.Document{
		ID:      uuid.New().String(),
		OwnerID: uuid.New().String(),
		Title:   "notes.pdf",
		Status:  status,
	}
	doc.UpdatedAt = time.Now().Add(-age)
	assert.NoError(t, db.CreateDocument(context.TODO(), doc))

	return doc
}

func TestStaleDocumentReaper_Run(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	db := store.NewGormStore(tester.TestDB())

	stale := seedDocument(t, db, model.StatusProcessing, time.Hour)
	fresh := seedDocument(t, db, model.StatusProcessing, time.Minute)
	done := seedDocument(t, db, model.StatusCompleted, time.Hour)

	var mu sync.Mutex
	var events []notify.Event
	notifier := notify.NotifierFunc(func(ctx context.Context, ownerID string, event notify.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	reaper := NewStaleDocumentReaper(db, notifier, cache.NewNopDocumentCache(), "@every 5m", 30*time.Minute)
	assert.Equal(t, "@every 5m", reaper.Schedule())

	reaper.Run()

	got, err := db.GetDocument(context.TODO(), uuid.MustParse(stale.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "processing timed out", got.FailReason)

	got, err = db.GetDocument(context.TODO(), uuid.MustParse(fresh.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.Status)

	got, err = db.GetDocument(context.TODO(), uuid.MustParse(done.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	assert.Len(t, events, 1)
	assert.Equal(t, notify.EventDocumentUpdate, events[0].Type)
	assert.Equal(t, stale.ID, events[0].Document.ID)
	assert.Equal(t, model.StatusFailed, events[0].Document.Status)
}

func TestStaleDocumentReaper_Idempotent(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	db := store.NewGormStore(tester.TestDB())
	stale := seedDocument(t, db, model.StatusProcessing, time.Hour)

	var count int
	notifier := notify.NotifierFunc(func(ctx context.Context, ownerID string, event notify.Event) error {
		count++
		return nil
	})

	reaper := NewStaleDocumentReaper(db, notifier, cache.NewNopDocumentCache(), "@every 5m", 30*time.Minute)
	reaper.Run()
	reaper.Run()

	got, err := db.GetDocument(context.TODO(), uuid.MustParse(stale.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)

	// the second run found nothing to reap
	assert.Equal(t, 1, count)
}
