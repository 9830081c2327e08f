package stream

import (
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// QueueEvent is the payload pushed to connected kitchen displays.
type QueueEvent struct {
	EventType string              `json:"event_type"`
	Order     event.OrderSnapshot `json:"order"`
}

// Hub fans queue changes out to SSE subscribers. Slow subscribers are never
// allowed to block the queue: when a channel is full the event is dropped
// for that subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan QueueEvent
	logger      apt.Logger
}

// NewHub creates an empty hub.
func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		subscribers: make(map[string]chan QueueEvent),
		logger:      logger,
	}
}

// BroadcastOrderEvent sends the change to every subscriber.
func (h *Hub) BroadcastOrderEvent(eventType string, order event.OrderSnapshot) {
	evt := QueueEvent{EventType: eventType, Order: order}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for subscriberID, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			h.logger.Error("subscriber channel full, dropping event", "subscriber_id", subscriberID)
		}
	}
}

// Subscribe registers a display connection and returns its event channel.
func (h *Hub) Subscribe(subscriberID string) <-chan QueueEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan QueueEvent, 100)
	h.subscribers[subscriberID] = ch

	h.logger.Info("new SSE subscriber", "subscriber_id", subscriberID, "total_subscribers", len(h.subscribers))
	return ch
}

// Unsubscribe removes a display connection and closes its channel.
func (h *Hub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[subscriberID]; ok {
		close(ch)
		delete(h.subscribers, subscriberID)
		h.logger.Info("SSE subscriber disconnected", "subscriber_id", subscriberID, "total_subscribers", len(h.subscribers))
	}
}

// Close drops all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
