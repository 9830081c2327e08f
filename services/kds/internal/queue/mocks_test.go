package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// MockStreamConsumer is a test mock for events.StreamConsumer
type MockStreamConsumer struct {
	messages  []events.StreamMessage
	FetchFunc func(ctx context.Context, maxMessages int) ([]events.StreamMessage, error)
}

func NewMockStreamConsumer() *MockStreamConsumer {
	return &MockStreamConsumer{
		messages: make([]events.StreamMessage, 0),
	}
}

func (m *MockStreamConsumer) Fetch(ctx context.Context, maxMessages int) ([]events.StreamMessage, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, maxMessages)
	}
	return m.messages, nil
}

func (m *MockStreamConsumer) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	return nil
}

func (m *MockStreamConsumer) AddMessage(data []byte) {
	m.messages = append(m.messages, events.StreamMessage{Data: data})
}

// MockFetcher is a test mock for Fetcher
type MockFetcher struct {
	Orders            []event.OrderSnapshot
	Err               error
	Calls             int
	KitchenOrdersFunc func(ctx context.Context) ([]event.OrderSnapshot, error)
}

func (m *MockFetcher) KitchenOrders(ctx context.Context) ([]event.OrderSnapshot, error) {
	m.Calls++
	if m.KitchenOrdersFunc != nil {
		return m.KitchenOrdersFunc(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Orders, nil
}

// MockStatusClient is a test mock for StatusClient
type MockStatusClient struct {
	UpdateStatusFunc func(ctx context.Context, orderID, newStatus string) (event.OrderSnapshot, error)
	Calls            []StatusCall
}

type StatusCall struct {
	OrderID   string
	NewStatus string
}

func (m *MockStatusClient) UpdateStatus(ctx context.Context, orderID, newStatus string) (event.OrderSnapshot, error) {
	m.Calls = append(m.Calls, StatusCall{OrderID: orderID, NewStatus: newStatus})
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, orderID, newStatus)
	}
	return event.OrderSnapshot{}, errors.New("no update func configured")
}

// MockAlertSink records arrivals
type MockAlertSink struct {
	mu       sync.Mutex
	Arrivals []event.OrderSnapshot
}

func (m *MockAlertSink) OrderArrived(order event.OrderSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Arrivals = append(m.Arrivals, order)
}

func (m *MockAlertSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Arrivals)
}

// MockBroadcaster records broadcasts
type MockBroadcaster struct {
	mu     sync.Mutex
	Events []BroadcastCall
}

type BroadcastCall struct {
	EventType string
	Order     event.OrderSnapshot
}

func (m *MockBroadcaster) BroadcastOrderEvent(eventType string, order event.OrderSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, BroadcastCall{EventType: eventType, Order: order})
}

// fixedClock pins the present for countdown tests
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func snapshot(orderID, number, status string, placedAt time.Time) event.OrderSnapshot {
	return event.OrderSnapshot{
		OrderID:     orderID,
		OrderNumber: number,
		Status:      status,
		OrderType:   "dine-in",
		Items: []event.ItemSnapshot{
			{Name: "Masala Dosa", Quantity: 1, UnitPrice: 120, Subtotal: 120},
		},
		Timestamps: event.TimestampsSnapshot{PlacedAt: placedAt},
	}
}

func createdEvent(snap event.OrderSnapshot) []byte {
	data, _ := json.Marshal(event.OrderCreatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:   event.EventOrderCreated,
			OccurredAt:  time.Now().UTC(),
			OrderID:     snap.OrderID,
			OrderNumber: snap.OrderNumber,
		},
		Order: snap,
	})
	return data
}

func updatedEvent(snap event.OrderSnapshot, previousStatus string) []byte {
	data, _ := json.Marshal(event.OrderUpdatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:   event.EventOrderUpdated,
			OccurredAt:  time.Now().UTC(),
			OrderID:     snap.OrderID,
			OrderNumber: snap.OrderNumber,
		},
		PreviousStatus: previousStatus,
		Order:          snap,
	})
	return data
}

func completedEvent(orderID, number, finalStatus string) []byte {
	data, _ := json.Marshal(event.OrderCompletedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:   event.EventOrderCompleted,
			OccurredAt:  time.Now().UTC(),
			OrderID:     orderID,
			OrderNumber: number,
		},
		FinalStatus: finalStatus,
	})
	return data
}
