package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// SnapshotSource provides the current queue for the initial push so a
// freshly connected display does not wait for the next change.
type SnapshotSource interface {
	Active() []event.OrderSnapshot
}

// SSEHandler streams queue changes to kitchen displays over Server-Sent
// Events.
type SSEHandler struct {
	hub      *Hub
	snapshot SnapshotSource
	logger   apt.Logger
}

// NewSSEHandler creates a new SSE handler.
func NewSSEHandler(hub *Hub, snapshot SnapshotSource, logger apt.Logger) *SSEHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SSEHandler{
		hub:      hub,
		snapshot: snapshot,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler for the SSE endpoint.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	h.logger.Info("new SSE connection", "subscriber_id", subscriberID)

	eventChan := h.hub.Subscribe(subscriberID)
	defer h.hub.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")

	// The current queue goes out first; live events only carry deltas.
	if h.snapshot != nil {
		h.sendEvent(w, "queue-snapshot", map[string]interface{}{
			"orders": h.snapshot.Active(),
		})
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case evt, ok := <-eventChan:
			if !ok {
				h.logger.Info("event channel closed", "subscriber_id", subscriberID)
				return
			}
			h.sendEvent(w, "queue-update", evt)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
