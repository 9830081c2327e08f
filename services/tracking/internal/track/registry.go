package track

import (
	"sync"

	"github.com/appetiteclub/apt"
)

// TrackEvent is the payload pushed to customers watching one order.
type TrackEvent struct {
	EventType string      `json:"event_type"`
	Order     PublicOrder `json:"order"`
}

// Registry holds one room per order number. A customer joins the room for
// their order and receives only that order's events; rooms are created on
// first join and torn down when the last watcher leaves.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]chan TrackEvent
	logger apt.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		rooms:  make(map[string]map[string]chan TrackEvent),
		logger: logger,
	}
}

// Join subscribes a watcher to an order's room and returns its event channel.
func (r *Registry) Join(orderNumber, watcherID string) <-chan TrackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[orderNumber]
	if !ok {
		room = make(map[string]chan TrackEvent)
		r.rooms[orderNumber] = room
	}

	ch := make(chan TrackEvent, 16)
	room[watcherID] = ch

	r.logger.Info("watcher joined room", "order_number", orderNumber, "watcher_id", watcherID, "watchers", len(room))
	return ch
}

// Leave removes a watcher and closes its channel. Empty rooms are deleted.
func (r *Registry) Leave(orderNumber, watcherID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[orderNumber]
	if !ok {
		return
	}
	if ch, ok := room[watcherID]; ok {
		close(ch)
		delete(room, watcherID)
	}
	if len(room) == 0 {
		delete(r.rooms, orderNumber)
	}
}

// Broadcast delivers an event to every watcher of the order. Watchers in
// other rooms never see it. Full channels are skipped.
func (r *Registry) Broadcast(orderNumber string, evt TrackEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for watcherID, ch := range r.rooms[orderNumber] {
		select {
		case ch <- evt:
		default:
			r.logger.Error("watcher channel full, dropping event", "order_number", orderNumber, "watcher_id", watcherID)
		}
	}
}

// Watchers reports how many watchers an order's room has.
func (r *Registry) Watchers(orderNumber string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[orderNumber])
}

// Close tears down all rooms.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for number, room := range r.rooms {
		for id, ch := range room {
			close(ch)
			delete(room, id)
		}
		delete(r.rooms, number)
	}
}
