package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/apt/events"

	"github.com/hotelpos/hotelpos/pkg/event"
)

var queueBase = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestApplyCreated(t *testing.T) {
	t.Run("activeOrderJoinsQueue", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)
		snap := snapshot("ord-1", "ORD-0001", "pending", queueBase)

		cache.Apply(createdEvent(snap))

		if cache.Count() != 1 {
			t.Fatalf("expected 1 order, got %d", cache.Count())
		}
		got, ok := cache.Get("ord-1")
		if !ok {
			t.Fatal("expected order on queue")
		}
		if got.OrderNumber != "ORD-0001" {
			t.Errorf("expected ORD-0001, got %s", got.OrderNumber)
		}
	})

	t.Run("duplicateCreatedIsIdempotent", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)
		alerts := &MockAlertSink{}
		cache.alerts = alerts
		snap := snapshot("ord-1", "ORD-0001", "pending", queueBase)

		cache.Apply(createdEvent(snap))
		cache.Apply(createdEvent(snap))

		if cache.Count() != 1 {
			t.Errorf("expected 1 order after duplicate created, got %d", cache.Count())
		}
		if alerts.Count() != 1 {
			t.Errorf("expected 1 alert, got %d", alerts.Count())
		}
	})

	t.Run("inactiveOrderIgnored", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)
		snap := snapshot("ord-1", "ORD-0001", "served", queueBase)

		cache.Apply(createdEvent(snap))

		if cache.Count() != 0 {
			t.Errorf("expected empty queue, got %d orders", cache.Count())
		}
	})
}

func TestApplyUpdated(t *testing.T) {
	t.Run("activeStatusReplacesCopy", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)
		cache.Apply(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))

		updated := snapshot("ord-1", "ORD-0001", "preparing", queueBase)
		cache.Apply(updatedEvent(updated, "pending"))

		got, ok := cache.Get("ord-1")
		if !ok {
			t.Fatal("expected order to remain on queue")
		}
		if got.Status != "preparing" {
			t.Errorf("expected preparing, got %s", got.Status)
		}
	})

	t.Run("exitingActiveSetRemovesOrder", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)
		cache.Apply(createdEvent(snapshot("ord-1", "ORD-0001", "preparing", queueBase)))

		ready := snapshot("ord-1", "ORD-0001", "ready", queueBase)
		cache.Apply(updatedEvent(ready, "preparing"))

		if cache.Count() != 0 {
			t.Errorf("expected order removed when leaving active set, got %d", cache.Count())
		}
	})

	t.Run("unknownActiveOrderInserted", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)

		updated := snapshot("ord-9", "ORD-0009", "preparing", queueBase)
		cache.Apply(updatedEvent(updated, "pending"))

		if _, ok := cache.Get("ord-9"); !ok {
			t.Error("expected unseen active order to be inserted")
		}
	})

	t.Run("unknownInactiveOrderIgnored", func(t *testing.T) {
		cache := NewStateCache(nil, nil, nil, nil)

		updated := snapshot("ord-9", "ORD-0009", "served", queueBase)
		cache.Apply(updatedEvent(updated, "ready"))

		if cache.Count() != 0 {
			t.Errorf("expected empty queue, got %d", cache.Count())
		}
	})
}

func TestApplyCompleted(t *testing.T) {
	cache := NewStateCache(nil, nil, nil, nil)
	broadcaster := &MockBroadcaster{}
	cache.SetBroadcaster(broadcaster)

	cache.Apply(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))
	cache.Apply(completedEvent("ord-1", "ORD-0001", "cancelled"))

	if cache.Count() != 0 {
		t.Fatalf("expected order removed, got %d", cache.Count())
	}

	last := broadcaster.Events[len(broadcaster.Events)-1]
	if last.EventType != event.EventOrderCompleted {
		t.Errorf("expected completed broadcast, got %s", last.EventType)
	}
	if last.Order.Status != "cancelled" {
		t.Errorf("expected final status cancelled, got %s", last.Order.Status)
	}
}

func TestApplyMalformed(t *testing.T) {
	cache := NewStateCache(nil, nil, nil, nil)
	cache.Apply(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))

	cache.Apply([]byte("not json"))
	cache.Apply([]byte(`{"event_type":"order.shouted"}`))

	if cache.Count() != 1 {
		t.Errorf("malformed events must not disturb the queue, got %d orders", cache.Count())
	}
}

func TestActiveFIFO(t *testing.T) {
	cache := NewStateCache(nil, nil, nil, nil)

	// Insert newest first; Active must come back oldest first.
	cache.Apply(createdEvent(snapshot("ord-3", "ORD-0003", "pending", queueBase.Add(2*time.Minute))))
	cache.Apply(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))
	cache.Apply(createdEvent(snapshot("ord-2", "ORD-0002", "preparing", queueBase.Add(time.Minute))))

	active := cache.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(active))
	}
	want := []string{"ORD-0001", "ORD-0002", "ORD-0003"}
	for i, number := range want {
		if active[i].OrderNumber != number {
			t.Errorf("position %d: expected %s, got %s", i, number, active[i].OrderNumber)
		}
	}
}

func TestWarmFromStream(t *testing.T) {
	stream := NewMockStreamConsumer()
	stream.AddMessage(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))
	stream.AddMessage(createdEvent(snapshot("ord-2", "ORD-0002", "pending", queueBase.Add(time.Minute))))
	stream.AddMessage(updatedEvent(snapshot("ord-1", "ORD-0001", "ready", queueBase), "preparing"))

	fetcher := &MockFetcher{}
	cache := NewStateCache(stream, fetcher, nil, nil)

	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.Count() != 1 {
		t.Fatalf("expected 1 order after replay, got %d", cache.Count())
	}
	if _, ok := cache.Get("ord-2"); !ok {
		t.Error("expected ord-2 to survive replay")
	}
	if fetcher.Calls != 0 {
		t.Errorf("fetcher must not be called when stream replay works, got %d calls", fetcher.Calls)
	}
}

func TestWarmReplayIsSilent(t *testing.T) {
	stream := NewMockStreamConsumer()
	stream.AddMessage(createdEvent(snapshot("ord-1", "ORD-0001", "pending", queueBase)))
	stream.AddMessage(createdEvent(snapshot("ord-2", "ORD-0002", "preparing", queueBase.Add(time.Minute))))
	stream.AddMessage(completedEvent("ord-3", "ORD-0003", "served"))

	alerts := &MockAlertSink{}
	broadcaster := &MockBroadcaster{}
	cache := NewStateCache(stream, nil, alerts, nil)
	cache.SetBroadcaster(broadcaster)

	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.Count() != 2 {
		t.Fatalf("expected 2 orders after replay, got %d", cache.Count())
	}
	if alerts.Count() != 0 {
		t.Errorf("replayed orders must not re-announce, got %d alerts", alerts.Count())
	}
	if len(broadcaster.Events) != 0 {
		t.Errorf("replayed orders must not broadcast, got %d events", len(broadcaster.Events))
	}

	// Live events after warm-up still alert and broadcast.
	cache.Apply(createdEvent(snapshot("ord-4", "ORD-0004", "pending", queueBase.Add(2*time.Minute))))
	if alerts.Count() != 1 {
		t.Errorf("expected 1 alert for the live order, got %d", alerts.Count())
	}
	if len(broadcaster.Events) != 1 {
		t.Errorf("expected 1 broadcast for the live order, got %d", len(broadcaster.Events))
	}
}

func TestWarmFallsBackToFetch(t *testing.T) {
	t.Run("streamErrorUsesFetcher", func(t *testing.T) {
		stream := NewMockStreamConsumer()
		stream.FetchFunc = func(ctx context.Context, maxMessages int) ([]events.StreamMessage, error) {
			return nil, errors.New("stream unavailable")
		}
		fetcher := &MockFetcher{Orders: []event.OrderSnapshot{
			snapshot("ord-1", "ORD-0001", "pending", queueBase),
			snapshot("ord-2", "ORD-0002", "preparing", queueBase.Add(time.Minute)),
		}}
		cache := NewStateCache(stream, fetcher, nil, nil)

		if err := cache.Warm(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cache.Count() != 2 {
			t.Errorf("expected 2 orders from fetch, got %d", cache.Count())
		}
		if fetcher.Calls != 1 {
			t.Errorf("expected 1 fetch call, got %d", fetcher.Calls)
		}
	})

	t.Run("noStreamUsesFetcher", func(t *testing.T) {
		fetcher := &MockFetcher{Orders: []event.OrderSnapshot{
			snapshot("ord-1", "ORD-0001", "pending", queueBase),
		}}
		cache := NewStateCache(nil, fetcher, nil, nil)

		if err := cache.Warm(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cache.Count() != 1 {
			t.Errorf("expected 1 order, got %d", cache.Count())
		}
	})

	t.Run("fetchErrorSurfaces", func(t *testing.T) {
		fetcher := &MockFetcher{Err: errors.New("pos down")}
		cache := NewStateCache(nil, fetcher, nil, nil)

		if err := cache.Warm(context.Background()); err == nil {
			t.Error("expected warm-up error when fetch fails")
		}
	})
}

func TestReplaceAllFiltersInactive(t *testing.T) {
	cache := NewStateCache(nil, nil, nil, nil)
	cache.ReplaceAll([]event.OrderSnapshot{
		snapshot("ord-1", "ORD-0001", "pending", queueBase),
		snapshot("ord-2", "ORD-0002", "served", queueBase.Add(time.Minute)),
	})

	if cache.Count() != 1 {
		t.Errorf("expected inactive orders filtered out, got %d", cache.Count())
	}
}
