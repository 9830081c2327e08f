package events

import (
	"context"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// QueueApplier consumes raw order events (the queue state cache).
type QueueApplier interface {
	Apply(data []byte)
}

// Subscriber wires the order topic into the queue. A bad event is logged by
// the applier and skipped; the subscription itself never errors out.
type Subscriber struct {
	subscriber aptevents.Subscriber
	applier    QueueApplier
	logger     apt.Logger
}

// NewSubscriber creates an order event subscriber for the queue.
func NewSubscriber(subscriber aptevents.Subscriber, applier QueueApplier, logger apt.Logger) *Subscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Subscriber{
		subscriber: subscriber,
		applier:    applier,
		logger:     logger,
	}
}

// Start subscribes to the order topic. Closing the underlying connection is
// the caller's concern (a lifecycle hook in main).
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("subscribing to order events", "topic", event.OrdersTopic)
	return s.subscriber.Subscribe(ctx, event.OrdersTopic, func(ctx context.Context, data []byte) error {
		s.applier.Apply(data)
		return nil
	})
}
