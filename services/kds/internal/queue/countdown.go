package queue

import (
	"fmt"
	"time"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/event"
)

// DefaultPrepMinutes applies when no item on the order carries a prep time.
const DefaultPrepMinutes = 15

// Clock abstracts time for countdown math so tests can pin the present.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Countdown is the derived timer state for one queued order.
type Countdown struct {
	OrderID      string        `json:"order_id"`
	TargetAt     time.Time     `json:"target_at"`
	Remaining    time.Duration `json:"-"`
	RemainingSec int           `json:"remaining_seconds"`
	Display      string        `json:"display"`
	Overdue      bool          `json:"overdue"`
}

// PrepDuration returns the prep allowance for an order: the longest prep
// time among its items, since the kitchen works lines in parallel. An item
// without a recorded prep time counts as the default allowance, so it can
// still gate readiness.
func PrepDuration(order event.OrderSnapshot) time.Duration {
	maxMinutes := 0
	for _, item := range order.Items {
		minutes := item.PrepMinutes
		if minutes <= 0 {
			minutes = DefaultPrepMinutes
		}
		if minutes > maxMinutes {
			maxMinutes = minutes
		}
	}
	if maxMinutes == 0 {
		maxMinutes = DefaultPrepMinutes
	}
	return time.Duration(maxMinutes) * time.Minute
}

// ComputeCountdown derives the timer state for an order at the given instant.
// The countdown runs from the moment preparation started; orders not yet
// preparing have no timer and report ok == false. Remaining never goes
// negative: once the target passes, the countdown holds at zero and flips
// Overdue.
func ComputeCountdown(order event.OrderSnapshot, clock Clock) (Countdown, bool) {
	if order.Status != orderstatus.Statuses.Preparing.Name || order.Timestamps.PreparingAt == nil {
		return Countdown{}, false
	}

	target := order.Timestamps.PreparingAt.Add(PrepDuration(order))
	remaining := target.Sub(clock.Now())

	overdue := remaining < 0
	if overdue {
		remaining = 0
	}

	return Countdown{
		OrderID:      order.OrderID,
		TargetAt:     target,
		Remaining:    remaining,
		RemainingSec: int(remaining / time.Second),
		Display:      FormatDisplay(remaining),
		Overdue:      overdue,
	}, true
}

// FormatDisplay renders a duration as MM:SS for the kitchen display.
func FormatDisplay(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
