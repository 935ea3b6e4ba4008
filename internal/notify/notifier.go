// Package notify pushes document state changes to the owning client.
package notify

import (
	"context"
	"time"
)

// EventDocumentUpdate is the only event type emitted today.
const EventDocumentUpdate = "document_update"

// DocumentProjection is the externally visible snapshot of a document carried
// by an event.
type DocumentProjection struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Pages          int        `json:"pages"`
	FlashcardCount int        `json:"flashcard_count"`
	HasSummary     bool       `json:"has_summary"`
	FailReason     string     `json:"fail_reason,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// Event is one state-change notification.
type Event struct {
	Type     string             `json:"type"`
	Document DocumentProjection `json:"document"`
}

// Notifier delivers events to the topic of an owner. Delivery is best-effort
// and fire-and-forget: an absent subscriber is not an error, and callers log
// a returned error instead of propagating it.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, event Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ownerID string, event Event) error

func (f NotifierFunc) Notify(ctx context.Context, ownerID string, event Event) error {
	return f(ctx, ownerID, event)
}
