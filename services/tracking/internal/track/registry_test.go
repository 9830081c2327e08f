package track

import (
	"testing"
)

func TestRegistryRoomIsolation(t *testing.T) {
	registry := NewRegistry(nil)

	chA := registry.Join("ORD-0001", "watcher-a")
	chB := registry.Join("ORD-0002", "watcher-b")

	registry.Broadcast("ORD-0001", TrackEvent{
		EventType: "order.updated",
		Order:     PublicOrder{OrderNumber: "ORD-0001", Status: "preparing"},
	})

	select {
	case evt := <-chA:
		if evt.Order.OrderNumber != "ORD-0001" {
			t.Errorf("unexpected order %s", evt.Order.OrderNumber)
		}
	default:
		t.Error("watcher-a expected its order's event")
	}

	select {
	case evt := <-chB:
		t.Errorf("watcher-b must not receive other orders' events, got %+v", evt)
	default:
	}
}

func TestRegistryMultipleWatchersSameOrder(t *testing.T) {
	registry := NewRegistry(nil)

	chA := registry.Join("ORD-0001", "watcher-a")
	chB := registry.Join("ORD-0001", "watcher-b")

	registry.Broadcast("ORD-0001", TrackEvent{EventType: "order.updated"})

	if len(chA) != 1 || len(chB) != 1 {
		t.Errorf("expected both watchers to receive the event, got %d and %d", len(chA), len(chB))
	}
}

func TestRegistryLeave(t *testing.T) {
	registry := NewRegistry(nil)

	ch := registry.Join("ORD-0001", "watcher-a")
	registry.Leave("ORD-0001", "watcher-a")

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after leave")
	}
	if registry.Watchers("ORD-0001") != 0 {
		t.Error("expected empty room torn down")
	}

	// Leaving twice or leaving an unknown room must not panic.
	registry.Leave("ORD-0001", "watcher-a")
	registry.Leave("ORD-9999", "nobody")
}

func TestRegistryDropsWhenWatcherFull(t *testing.T) {
	registry := NewRegistry(nil)

	ch := registry.Join("ORD-0001", "slow-watcher")
	for i := 0; i < 40; i++ {
		registry.Broadcast("ORD-0001", TrackEvent{EventType: "order.updated"})
	}

	if len(ch) != 16 {
		t.Errorf("expected buffer capped at 16, got %d", len(ch))
	}
}

func TestRegistryClose(t *testing.T) {
	registry := NewRegistry(nil)

	chA := registry.Join("ORD-0001", "watcher-a")
	chB := registry.Join("ORD-0002", "watcher-b")
	registry.Close()

	if _, ok := <-chA; ok {
		t.Error("expected watcher-a channel closed")
	}
	if _, ok := <-chB; ok {
		t.Error("expected watcher-b channel closed")
	}
}
