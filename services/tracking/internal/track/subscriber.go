package track

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// Subscriber routes order events into the right room by order number.
// Completed events carry no snapshot, so the last known view is refreshed
// from the POS service before the final push.
type Subscriber struct {
	subscriber aptevents.Subscriber
	registry   *Registry
	client     *POSClient
	logger     apt.Logger
}

// NewSubscriber creates an order event subscriber for the registry.
func NewSubscriber(subscriber aptevents.Subscriber, registry *Registry, client *POSClient, logger apt.Logger) *Subscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Subscriber{
		subscriber: subscriber,
		registry:   registry,
		client:     client,
		logger:     logger,
	}
}

// Start subscribes to the order topic. Closing the underlying connection is
// the caller's concern (a lifecycle hook in main).
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("subscribing to order events", "topic", event.OrdersTopic)
	return s.subscriber.Subscribe(ctx, event.OrdersTopic, func(ctx context.Context, data []byte) error {
		s.route(ctx, data)
		return nil
	})
}

func (s *Subscriber) route(ctx context.Context, data []byte) {
	var meta event.OrderEventMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Error("failed to unmarshal event metadata", "error", err)
		return
	}
	if meta.OrderNumber == "" {
		return
	}

	// No watchers, no work.
	if s.registry.Watchers(meta.OrderNumber) == 0 {
		return
	}

	switch meta.EventType {
	case event.EventOrderCreated:
		var evt event.OrderCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Error("failed to unmarshal order.created event", "error", err)
			return
		}
		s.registry.Broadcast(meta.OrderNumber, TrackEvent{
			EventType: meta.EventType,
			Order:     PublicView(evt.Order),
		})

	case event.EventOrderUpdated:
		var evt event.OrderUpdatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Error("failed to unmarshal order.updated event", "error", err)
			return
		}
		s.registry.Broadcast(meta.OrderNumber, TrackEvent{
			EventType: meta.EventType,
			Order:     PublicView(evt.Order),
		})

	case event.EventOrderCompleted:
		view, err := s.finalView(ctx, data, meta)
		if err != nil {
			s.logger.Error("cannot build final order view", "order_number", meta.OrderNumber, "error", err)
			return
		}
		s.registry.Broadcast(meta.OrderNumber, TrackEvent{
			EventType: meta.EventType,
			Order:     view,
		})
	}
}

func (s *Subscriber) finalView(ctx context.Context, data []byte, meta event.OrderEventMetadata) (PublicOrder, error) {
	var evt event.OrderCompletedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return PublicOrder{}, err
	}

	if s.client != nil {
		snap, err := s.client.GetByNumber(ctx, meta.OrderNumber)
		if err == nil {
			return PublicView(snap), nil
		}
		s.logger.Error("final fetch failed, falling back to event data", "order_number", meta.OrderNumber, "error", err)
	}

	return PublicView(event.OrderSnapshot{
		OrderID:     meta.OrderID,
		OrderNumber: meta.OrderNumber,
		Status:      evt.FinalStatus,
	}), nil
}
