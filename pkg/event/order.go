package event

import "time"

const (
	OrdersTopic         = "pos.orders"
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderCompleted = "order.completed"
)

// OrderEventMetadata is the envelope shared by all order lifecycle events.
type OrderEventMetadata struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// ItemSnapshot is a line item as carried on the wire.
type ItemSnapshot struct {
	Name        string  `json:"name"`
	Variant     string  `json:"variant,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
	PrepMinutes int     `json:"prep_minutes,omitempty"`
}

// PricingSnapshot is the order's pricing summary.
type PricingSnapshot struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// TimestampsSnapshot records when each status transition occurred.
type TimestampsSnapshot struct {
	PlacedAt    time.Time  `json:"placed_at"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	ServedAt    *time.Time `json:"served_at,omitempty"`
}

// OrderSnapshot is the normalized order shape shared by events and the REST
// client boundary. Consumers merge snapshots by OrderID and never look at
// endpoint-specific nesting.
type OrderSnapshot struct {
	OrderID       string             `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	Status        string             `json:"status"`
	OrderType     string             `json:"order_type"`
	TableNumber   string             `json:"table_number,omitempty"`
	RoomNumber    string             `json:"room_number,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	Items         []ItemSnapshot     `json:"items"`
	Pricing       PricingSnapshot    `json:"pricing"`
	Timestamps    TimestampsSnapshot `json:"timestamps"`
}

// OrderCreatedEvent announces a new order entering the kitchen queue.
type OrderCreatedEvent struct {
	OrderEventMetadata
	Order OrderSnapshot `json:"order"`
}

// OrderUpdatedEvent carries the full post-change order so consumers can
// replace their copy without a read-back.
type OrderUpdatedEvent struct {
	OrderEventMetadata
	PreviousStatus string        `json:"previous_status,omitempty"`
	Order          OrderSnapshot `json:"order"`
}

// OrderCompletedEvent signals that the order left the active set.
type OrderCompletedEvent struct {
	OrderEventMetadata
	FinalStatus string `json:"final_status"`
}
