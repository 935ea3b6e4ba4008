package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/studydoc/internal/cache"
	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/notify"
	"github.com/emrgen/studydoc/internal/store"
)

// StaleDocumentReaper fails documents stuck in processing past a deadline.
// A stuck document is one whose pipeline run died with the process; the run
// itself is never retried, the owner resubmits manually.
type StaleDocumentReaper struct {
	store    store.Store
	notifier notify.Notifier
	cache    cache.DocumentCache
	schedule string
	deadline time.Duration
}

func NewStaleDocumentReaper(store store.Store, notifier notify.Notifier, cache cache.DocumentCache, schedule string, deadline time.Duration) *StaleDocumentReaper {
	return &StaleDocumentReaper{
		store:    store,
		notifier: notifier,
		cache:    cache,
		schedule: schedule,
		deadline: deadline,
	}
}

func (r *StaleDocumentReaper) Schedule() string {
	return r.schedule
}

func (r *StaleDocumentReaper) Run() {
	ctx := context.Background()
	cutoff := time.Now().Add(-r.deadline)

	docs, err := r.store.ListDocumentsByStatusBefore(ctx, model.StatusProcessing, cutoff)
	if err != nil {
		logrus.Errorf("reaper: failed to list stale documents: %v", err)
		return
	}

	for _, doc := range docs {
		logrus.Warnf("reaper: document %s stuck in processing since %s", doc.ID, doc.UpdatedAt)

		doc.Status = model.StatusFailed
		doc.FailReason = "processing timed out"
		if err := r.store.UpdateDocument(ctx, doc); err != nil {
			logrus.Errorf("reaper: failed to mark document %s as failed: %v", doc.ID, err)
			continue
		}

		if err := r.cache.Invalidate(ctx, doc.OwnerID); err != nil {
			logrus.Warnf("reaper: failed to invalidate cache for owner %s: %v", doc.OwnerID, err)
		}

		event := notify.Event{
			Type: notify.EventDocumentUpdate,
			Document: notify.DocumentProjection{
				ID:         doc.ID,
				Title:      doc.Title,
				Status:     doc.Status,
				Pages:      doc.Pages,
				FailReason: doc.FailReason,
			},
		}
		if err := r.notifier.Notify(ctx, doc.OwnerID, event); err != nil {
			logrus.Warnf("reaper: failed to notify owner %s: %v", doc.OwnerID, err)
		}
	}
}
