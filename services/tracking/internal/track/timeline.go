package track

import (
	"time"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/enums/ordertype"
	"github.com/hotelpos/hotelpos/pkg/event"
)

// TimelineStep is one stop on the customer-facing progress timeline.
type TimelineStep struct {
	Status  string     `json:"status"`
	Label   string     `json:"label"`
	Reached bool       `json:"reached"`
	At      *time.Time `json:"at,omitempty"`
}

// PublicOrder is the customer-safe view of an order: progress and item names,
// no pricing internals, phone numbers, or IDs.
type PublicOrder struct {
	OrderNumber string         `json:"order_number"`
	Status      string         `json:"status"`
	StatusLabel string         `json:"status_label"`
	OrderType   string         `json:"order_type"`
	Items       []PublicItem   `json:"items"`
	PlacedAt    time.Time      `json:"placed_at"`
	Timeline    []TimelineStep `json:"timeline"`
	Cancelled   bool           `json:"cancelled,omitempty"`
}

// PublicItem is a line item stripped down to what the customer ordered.
type PublicItem struct {
	Name     string `json:"name"`
	Variant  string `json:"variant,omitempty"`
	Quantity int    `json:"quantity"`
}

// PublicView maps an order snapshot into the customer-safe shape, deriving
// the timeline for the order's type.
func PublicView(snap event.OrderSnapshot) PublicOrder {
	items := make([]PublicItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, PublicItem{
			Name:     item.Name,
			Variant:  item.Variant,
			Quantity: item.Quantity,
		})
	}

	statusLabel := snap.Status
	if s := orderstatus.ByName(snap.Status); s != nil {
		statusLabel = s.Label()
	}

	return PublicOrder{
		OrderNumber: snap.OrderNumber,
		Status:      snap.Status,
		StatusLabel: statusLabel,
		OrderType:   snap.OrderType,
		Items:       items,
		PlacedAt:    snap.Timestamps.PlacedAt,
		Timeline:    BuildTimeline(snap),
		Cancelled:   snap.Status == orderstatus.Statuses.Cancelled.Name || snap.Status == orderstatus.Statuses.NoShow.Name,
	}
}

// BuildTimeline derives the progress steps for an order. A step is reached
// when the order recorded its transition timestamp; pending is reached the
// moment the order was placed.
func BuildTimeline(snap event.OrderSnapshot) []TimelineStep {
	steps := ordertype.TimelineSteps(snap.OrderType)
	timeline := make([]TimelineStep, 0, len(steps))

	for _, step := range steps {
		entry := TimelineStep{Status: step}
		if s := orderstatus.ByName(step); s != nil {
			entry.Label = s.Label()
		}

		switch step {
		case orderstatus.Statuses.Pending.Name:
			entry.Reached = !snap.Timestamps.PlacedAt.IsZero()
			if entry.Reached {
				at := snap.Timestamps.PlacedAt
				entry.At = &at
			}
		case orderstatus.Statuses.Preparing.Name:
			entry.Reached = snap.Timestamps.PreparingAt != nil
			entry.At = snap.Timestamps.PreparingAt
		case orderstatus.Statuses.Ready.Name:
			entry.Reached = snap.Timestamps.ReadyAt != nil
			entry.At = snap.Timestamps.ReadyAt
		case orderstatus.Statuses.Served.Name:
			entry.Reached = snap.Timestamps.ServedAt != nil
			entry.At = snap.Timestamps.ServedAt
		}

		timeline = append(timeline, entry)
	}

	return timeline
}
