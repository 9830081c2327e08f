package queue

import (
	"github.com/appetiteclub/apt"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// AlertSink is notified when a new order lands on the queue. The display
// layer uses it to flash and chime for kitchen staff.
type AlertSink interface {
	OrderArrived(order event.OrderSnapshot)
}

// NopAlertSink discards alerts.
type NopAlertSink struct{}

func (NopAlertSink) OrderArrived(event.OrderSnapshot) {}

// LogAlertSink records arrivals on the service log. It is the default sink
// when no display transport is attached.
type LogAlertSink struct {
	Logger apt.Logger
}

func (s LogAlertSink) OrderArrived(order event.OrderSnapshot) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("new order on queue",
		"order_id", order.OrderID,
		"order_number", order.OrderNumber,
		"order_type", order.OrderType,
		"items", len(order.Items))
}
