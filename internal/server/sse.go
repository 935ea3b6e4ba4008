package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/studydoc/internal/notify"
)

// EventsHandler streams document_update events to the connected owner over
// server-sent events. Events published while nobody is connected are lost;
// clients reconcile by refetching the document list on reconnect.
type EventsHandler struct {
	notifier *notify.RedisNotifier
}

func NewEventsHandler(notifier *notify.RedisNotifier) *EventsHandler {
	return &EventsHandler{notifier: notifier}
}

func (h *EventsHandler) Register(r gin.IRoutes) {
	r.GET("/events", h.Stream)
}

func (h *EventsHandler) Stream(c *gin.Context) {
	owner := ownerID(c)

	events, stop, err := h.notifier.Subscribe(c.Request.Context(), owner.String())
	if err != nil {
		logrus.Errorf("failed to subscribe owner %s: %v", owner, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription failed"})
		return
	}
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(event.Type, event)
		return true
	})
}
