package pos

import (
	"math"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/event"
)

type Order struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	OrderNumber   string    `json:"order_number" bson:"order_number"`
	Status        string    `json:"status" bson:"status"`
	OrderType     string    `json:"order_type" bson:"order_type"`
	TableNumber   string    `json:"table_number,omitempty" bson:"table_number,omitempty"`
	RoomNumber    string    `json:"room_number,omitempty" bson:"room_number,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty" bson:"customer_phone,omitempty"`
	Items         []LineItem `json:"items" bson:"items"`
	Pricing       Pricing    `json:"pricing" bson:"pricing"`

	PlacedAt    time.Time  `json:"placed_at" bson:"placed_at"`
	PreparingAt *time.Time `json:"preparing_at,omitempty" bson:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty" bson:"ready_at,omitempty"`
	ServedAt    *time.Time `json:"served_at,omitempty" bson:"served_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type LineItem struct {
	Name        string  `json:"name" bson:"name"`
	Variant     string  `json:"variant,omitempty" bson:"variant,omitempty"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	UnitPrice   float64 `json:"unit_price" bson:"unit_price"`
	Subtotal    float64 `json:"subtotal" bson:"subtotal"`
	PrepMinutes int     `json:"prep_minutes,omitempty" bson:"prep_minutes,omitempty"`
}

type Pricing struct {
	Subtotal float64 `json:"subtotal" bson:"subtotal"`
	Tax      float64 `json:"tax" bson:"tax"`
	Discount float64 `json:"discount" bson:"discount"`
	Total    float64 `json:"total" bson:"total"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func NewOrder(orderType string) *Order {
	return &Order{
		ID:        apt.GenerateNewID(),
		Status:    orderstatus.Statuses.Pending.Name,
		OrderType: orderType,
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	now := time.Now()
	o.PlacedAt = now
	o.CreatedAt = now
	o.UpdatedAt = now
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// ComputeTotals recalculates line subtotals and the pricing summary. taxRate
// is a percentage (e.g. 5 for 5% GST); discount is an absolute amount already
// agreed at the counter.
func (o *Order) ComputeTotals(taxRate, discount float64) {
	var subtotal float64
	for i := range o.Items {
		o.Items[i].Subtotal = round2(float64(o.Items[i].Quantity) * o.Items[i].UnitPrice)
		subtotal += o.Items[i].Subtotal
	}
	o.Pricing.Subtotal = round2(subtotal)
	o.Pricing.Tax = round2(subtotal * taxRate / 100)
	o.Pricing.Discount = round2(discount)
	o.Pricing.Total = round2(o.Pricing.Subtotal + o.Pricing.Tax - o.Pricing.Discount)
}

// ApplyStatus moves the order to newStatus and stamps the matching timestamp.
// Callers must have validated the transition first.
func (o *Order) ApplyStatus(newStatus string) {
	now := time.Now()
	o.Status = newStatus
	switch newStatus {
	case orderstatus.Statuses.Preparing.Name:
		o.PreparingAt = &now
	case orderstatus.Statuses.Ready.Name:
		o.ReadyAt = &now
	case orderstatus.Statuses.Served.Name:
		o.ServedAt = &now
	}
	o.UpdatedAt = now
}

// Snapshot maps the order into the wire shape shared with the KDS and
// tracking services.
func (o *Order) Snapshot() event.OrderSnapshot {
	items := make([]event.ItemSnapshot, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, event.ItemSnapshot{
			Name:        item.Name,
			Variant:     item.Variant,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			PrepMinutes: item.PrepMinutes,
		})
	}
	return event.OrderSnapshot{
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		OrderType:     o.OrderType,
		TableNumber:   o.TableNumber,
		RoomNumber:    o.RoomNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Items:         items,
		Pricing: event.PricingSnapshot{
			Subtotal: o.Pricing.Subtotal,
			Tax:      o.Pricing.Tax,
			Discount: o.Pricing.Discount,
			Total:    o.Pricing.Total,
		},
		Timestamps: event.TimestampsSnapshot{
			PlacedAt:    o.PlacedAt,
			PreparingAt: o.PreparingAt,
			ReadyAt:     o.ReadyAt,
			ServedAt:    o.ServedAt,
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
