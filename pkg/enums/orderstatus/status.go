package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Served    Status
	Cancelled Status
	NoShow    Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
	Cancelled: Status{Name: "cancelled"},
	NoShow:    Status{Name: "no-show"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Cancelled,
	Statuses.NoShow,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// forward holds the single legal next step in the preparation sequence.
var forward = map[string]string{
	Statuses.Pending.Name:   Statuses.Preparing.Name,
	Statuses.Preparing.Name: Statuses.Ready.Name,
	Statuses.Ready.Name:     Statuses.Served.Name,
}

// Next returns the single legal forward transition from code, or nil when the
// status is terminal.
func Next(code string) *Status {
	next, ok := forward[code]
	if !ok {
		return nil
	}
	return ByName(next)
}

// CanTransition reports whether moving from one status to another is legal.
// The preparation sequence is monotonic (pending, preparing, ready, served);
// cancelled and no-show are terminal exits reachable from any active status.
func CanTransition(from, to string) bool {
	if ByName(from) == nil || ByName(to) == nil {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	if to == Statuses.Cancelled.Name || to == Statuses.NoShow.Name {
		return true
	}
	return forward[from] == to
}

// IsActive reports whether a status keeps the order on the kitchen queue.
func IsActive(code string) bool {
	return code == Statuses.Pending.Name || code == Statuses.Preparing.Name
}

// IsTerminal reports whether no further transitions are allowed.
func IsTerminal(code string) bool {
	switch code {
	case Statuses.Served.Name, Statuses.Cancelled.Name, Statuses.NoShow.Name:
		return true
	}
	return false
}
