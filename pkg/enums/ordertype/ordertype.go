package ordertype

import (
	"strings"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
)

type Type struct {
	Name string
}

func (t Type) Code() string {
	return t.Name
}

func (t Type) Label() string {
	parts := strings.Split(t.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	DineIn      Type
	RoomService Type
	Takeaway    Type
	Delivery    Type
}

var Types = Enum{
	DineIn:      Type{Name: "dine-in"},
	RoomService: Type{Name: "room-service"},
	Takeaway:    Type{Name: "takeaway"},
	Delivery:    Type{Name: "delivery"},
}

var All = []Type{
	Types.DineIn,
	Types.RoomService,
	Types.Takeaway,
	Types.Delivery,
}

// ByName returns the type for a given name, or nil if not found
func ByName(name string) *Type {
	for _, t := range All {
		if t.Name == name {
			return &t
		}
	}
	return nil
}

// TimelineSteps returns the ordered status steps shown on the customer tracking
// timeline for a given order type. Delivery orders hand off to a courier after
// ready, so the served step is omitted.
func TimelineSteps(code string) []string {
	steps := []string{
		orderstatus.Statuses.Pending.Name,
		orderstatus.Statuses.Preparing.Name,
		orderstatus.Statuses.Ready.Name,
	}
	if code != Types.Delivery.Name {
		steps = append(steps, orderstatus.Statuses.Served.Name)
	}
	return steps
}
