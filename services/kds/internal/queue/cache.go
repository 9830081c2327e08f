package queue

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/event"
)

// Fetcher retrieves the current active queue from the POS service. It is the
// fallback recovery path when stream replay is unavailable and the reconcile
// path after a failed transition.
type Fetcher interface {
	KitchenOrders(ctx context.Context) ([]event.OrderSnapshot, error)
}

// Broadcaster receives queue changes for fan-out to connected display clients.
type Broadcaster interface {
	BroadcastOrderEvent(eventType string, order event.OrderSnapshot)
}

// StateCache maintains the in-memory kitchen queue: orders with status
// pending or preparing, ordered oldest placed first. All event handling
// funnels through Apply so every handler sees current state under the lock
// instead of a stale closure.
type StateCache struct {
	mu     sync.RWMutex
	orders map[string]*event.OrderSnapshot

	stream  events.StreamConsumer // event replay on startup
	fetcher Fetcher               // REST fallback when stream unavailable
	logger  apt.Logger
	alerts  AlertSink

	broadcaster Broadcaster
}

// NewStateCache creates a new queue cache.
func NewStateCache(stream events.StreamConsumer, fetcher Fetcher, alerts AlertSink, logger apt.Logger) *StateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if alerts == nil {
		alerts = NopAlertSink{}
	}
	return &StateCache{
		orders:  make(map[string]*event.OrderSnapshot),
		stream:  stream,
		fetcher: fetcher,
		logger:  logger,
		alerts:  alerts,
	}
}

// SetBroadcaster sets the fan-out target (called after initialization).
func (c *StateCache) SetBroadcaster(b Broadcaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcaster = b
}

// Warm loads the queue using event replay from the stream, falling back to a
// REST fetch from the POS service when the stream is unavailable.
func (c *StateCache) Warm(ctx context.Context) error {
	if c.stream != nil {
		if err := c.warmFromStream(ctx); err != nil {
			c.logger.Info("stream replay failed, falling back to REST fetch", "error", err)
		} else {
			return nil
		}
	}

	if c.fetcher == nil {
		c.logger.Info("neither stream nor fetcher configured, queue starts empty")
		return nil
	}

	return c.warmFromFetch(ctx)
}

func (c *StateCache) warmFromStream(ctx context.Context) error {
	c.logger.Info("warming queue from event stream")

	messages, err := c.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	c.logger.Info("fetched events from stream", "count", len(messages))

	// Replay rebuilds state only: no arrival alerts, no broadcasts. The
	// orders were already announced when the events first fired.
	for _, msg := range messages {
		c.apply(msg.Data, true)
	}

	c.logger.Info("queue warmed from stream", "orders", c.Count())
	return nil
}

func (c *StateCache) warmFromFetch(ctx context.Context) error {
	c.logger.Info("warming queue from POS service")

	orders, err := c.fetcher.KitchenOrders(ctx)
	if err != nil {
		return err
	}

	c.ReplaceAll(orders)
	c.logger.Info("queue warmed from POS service", "count", len(orders))
	return nil
}

// Apply routes a single event into the queue, keyed by event type. Malformed
// or unknown events are logged and skipped; they never disturb known orders.
func (c *StateCache) Apply(data []byte) {
	c.apply(data, false)
}

// apply is the single mutation path. Replayed events pass replay == true to
// suppress alerts and broadcasts.
func (c *StateCache) apply(data []byte, replay bool) {
	var meta event.OrderEventMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		c.logger.Error("failed to unmarshal event metadata", "error", err)
		return
	}

	switch meta.EventType {
	case event.EventOrderCreated:
		c.applyCreated(data, replay)
	case event.EventOrderUpdated:
		c.applyUpdated(data, replay)
	case event.EventOrderCompleted:
		c.applyCompleted(data, replay)
	default:
		// Silently ignore unknown event types (forward compatibility)
		return
	}
}

func (c *StateCache) applyCreated(data []byte, replay bool) {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("failed to unmarshal order.created event", "error", err)
		return
	}

	if !orderstatus.IsActive(evt.Order.Status) {
		return
	}

	c.mu.Lock()
	if _, exists := c.orders[evt.Order.OrderID]; exists {
		// Idempotent insert: replayed or duplicated created events are no-ops.
		c.mu.Unlock()
		return
	}
	snap := evt.Order
	c.orders[snap.OrderID] = &snap
	broadcaster := c.broadcaster
	c.mu.Unlock()

	if replay {
		return
	}
	c.alerts.OrderArrived(snap)
	if broadcaster != nil {
		broadcaster.BroadcastOrderEvent(event.EventOrderCreated, snap)
	}
}

func (c *StateCache) applyUpdated(data []byte, replay bool) {
	var evt event.OrderUpdatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("failed to unmarshal order.updated event", "error", err)
		return
	}

	c.mu.Lock()
	broadcaster := c.broadcaster
	if !orderstatus.IsActive(evt.Order.Status) {
		delete(c.orders, evt.Order.OrderID)
		c.mu.Unlock()
		if !replay && broadcaster != nil {
			broadcaster.BroadcastOrderEvent(event.EventOrderUpdated, evt.Order)
		}
		return
	}

	// Updates for orders the cache has not seen yet are inserted: the REST
	// warm fetch and the live stream race, and an update can win.
	snap := evt.Order
	c.orders[snap.OrderID] = &snap
	c.mu.Unlock()

	if !replay && broadcaster != nil {
		broadcaster.BroadcastOrderEvent(event.EventOrderUpdated, snap)
	}
}

func (c *StateCache) applyCompleted(data []byte, replay bool) {
	var evt event.OrderCompletedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("failed to unmarshal order.completed event", "error", err)
		return
	}

	c.mu.Lock()
	snap, exists := c.orders[evt.OrderID]
	if exists {
		delete(c.orders, evt.OrderID)
	}
	broadcaster := c.broadcaster
	c.mu.Unlock()

	if !replay && exists && broadcaster != nil {
		final := *snap
		final.Status = evt.FinalStatus
		broadcaster.BroadcastOrderEvent(event.EventOrderCompleted, final)
	}
}

// Get returns a copy of the order, if present.
func (c *StateCache) Get(orderID string) (event.OrderSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.orders[orderID]
	if !ok {
		return event.OrderSnapshot{}, false
	}
	return *snap, true
}

// Upsert stores a copy of snap, replacing any existing entry. Snapshots whose
// status has left the active set are removed instead.
func (c *StateCache) Upsert(snap event.OrderSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !orderstatus.IsActive(snap.Status) {
		delete(c.orders, snap.OrderID)
		return
	}
	c.orders[snap.OrderID] = &snap
}

// Remove deletes an order from the queue.
func (c *StateCache) Remove(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, orderID)
}

// ReplaceAll swaps the whole queue for the given set (used by warm-up and
// post-failure reconciliation).
func (c *StateCache) ReplaceAll(orders []event.OrderSnapshot) {
	next := make(map[string]*event.OrderSnapshot, len(orders))
	for i := range orders {
		if !orderstatus.IsActive(orders[i].Status) {
			continue
		}
		snap := orders[i]
		next[snap.OrderID] = &snap
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = next
}

// Active returns the queue ordered oldest placed first (FIFO discipline).
func (c *StateCache) Active() []event.OrderSnapshot {
	c.mu.RLock()
	result := make([]event.OrderSnapshot, 0, len(c.orders))
	for _, snap := range c.orders {
		result = append(result, *snap)
	}
	c.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamps.PlacedAt.Before(result[j].Timestamps.PlacedAt)
	})
	return result
}

// Count returns the number of orders on the queue.
func (c *StateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
