package kds

import (
	"context"
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/hotelpos/hotelpos/pkg/event"
	"github.com/hotelpos/hotelpos/services/kds/internal/queue"
)

// QueueSource is the read surface of the queue the handler serves.
type QueueSource interface {
	Active() []event.OrderSnapshot
	Count() int
}

// Advancer moves an order one step forward in the status sequence.
type Advancer interface {
	Advance(ctx context.Context, orderID string) (event.OrderSnapshot, error)
}

type Handler struct {
	cache    QueueSource
	advancer Advancer
	clock    queue.Clock
	stream   http.Handler
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

type HandlerDeps struct {
	Cache    QueueSource
	Advancer Advancer
	Clock    queue.Clock
	Stream   http.Handler
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	clock := hd.Clock
	if clock == nil {
		clock = queue.SystemClock()
	}
	return &Handler{
		cache:    hd.Cache,
		advancer: hd.Advancer,
		clock:    clock,
		stream:   hd.Stream,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kds", func(r chi.Router) {
		r.Get("/queue", h.Queue)
		r.Post("/orders/{id}/advance", h.AdvanceOrder)
		if h.stream != nil {
			r.Get("/stream", h.stream.ServeHTTP)
		}
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// queuedOrder pairs an order with its derived countdown state. Countdown is
// absent for orders that have not started preparation.
type queuedOrder struct {
	Order     event.OrderSnapshot `json:"order"`
	Countdown *queue.Countdown    `json:"countdown,omitempty"`
}

// Queue returns the active queue oldest first, preparing orders with their
// prep countdown evaluated at request time.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Queue")
	defer finish()

	active := h.cache.Active()
	orders := make([]queuedOrder, 0, len(active))
	for _, snap := range active {
		qo := queuedOrder{Order: snap}
		if cd, ok := queue.ComputeCountdown(snap, h.clock); ok {
			qo.Countdown = &cd
		}
		orders = append(orders, qo)
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	}, nil)
}

// AdvanceOrder moves the order to its next status via the POS service and
// returns the confirmed order.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()
	log := h.log(r)

	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	confirmed, err := h.advancer.Advance(r.Context(), orderID)
	if err != nil {
		log.Errorf("cannot advance order %s: %v", orderID, err)
		if errors.Is(err, queue.ErrNotOnQueue) {
			apt.RespondError(w, http.StatusNotFound, "Order is not on the queue")
			return
		}
		apt.RespondError(w, http.StatusConflict, "Order could not be advanced")
		return
	}

	log.Info("order advanced",
		"order_id", confirmed.OrderID,
		"order_number", confirmed.OrderNumber,
		"new_status", confirmed.Status,
	)
	apt.RespondSuccess(w, confirmed)
}
