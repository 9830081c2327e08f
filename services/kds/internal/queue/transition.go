package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/event"
)

// ErrNotOnQueue is returned when an advance targets an order the queue does
// not hold.
var ErrNotOnQueue = errors.New("order is not on the queue")

// StatusClient is the slice of the POS client the transitioner needs.
type StatusClient interface {
	UpdateStatus(ctx context.Context, orderID, newStatus string) (event.OrderSnapshot, error)
}

// Transitioner advances queued orders through the status sequence. The local
// queue is updated optimistically so the display reacts immediately; if the
// POS service rejects the change the previous state is restored and the
// queue reconciled against the server.
type Transitioner struct {
	cache   *StateCache
	client  StatusClient
	fetcher Fetcher
	logger  apt.Logger
}

// NewTransitioner creates a transitioner over the given queue.
func NewTransitioner(cache *StateCache, client StatusClient, fetcher Fetcher, logger apt.Logger) *Transitioner {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Transitioner{
		cache:   cache,
		client:  client,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Advance moves the order to its next status and returns the server-confirmed
// order. Orders not on the queue or already at a hand-off status cannot be
// advanced from the kitchen display.
func (t *Transitioner) Advance(ctx context.Context, orderID string) (event.OrderSnapshot, error) {
	current, ok := t.cache.Get(orderID)
	if !ok {
		return event.OrderSnapshot{}, fmt.Errorf("order %s: %w", orderID, ErrNotOnQueue)
	}

	next := orderstatus.Next(current.Status)
	if next == nil {
		return event.OrderSnapshot{}, fmt.Errorf("order %s cannot advance from status %q", orderID, current.Status)
	}

	// Optimistic local update, rolled back if the POS service disagrees.
	optimistic := current
	optimistic.Status = next.Name
	t.cache.Upsert(optimistic)

	confirmed, err := t.client.UpdateStatus(ctx, orderID, next.Name)
	if err != nil {
		t.logger.Error("status update rejected, rolling back",
			"order_id", orderID,
			"from", current.Status,
			"to", next.Name,
			"error", err)
		t.cache.Upsert(current)
		t.reconcile(ctx)
		return event.OrderSnapshot{}, fmt.Errorf("advancing order %s: %w", orderID, err)
	}

	// The server copy carries the authoritative transition timestamps.
	t.cache.Upsert(confirmed)
	return confirmed, nil
}

// reconcile refreshes the queue from the POS service after a failed
// transition, in case the rejection means local state has drifted.
func (t *Transitioner) reconcile(ctx context.Context) {
	if t.fetcher == nil {
		return
	}
	orders, err := t.fetcher.KitchenOrders(ctx)
	if err != nil {
		t.logger.Error("queue reconciliation failed", "error", err)
		return
	}
	t.cache.ReplaceAll(orders)
}
