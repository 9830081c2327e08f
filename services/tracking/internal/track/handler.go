package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// OrderSource looks up orders by number (the POS client in production).
type OrderSource interface {
	GetByNumber(ctx context.Context, orderNumber string) (event.OrderSnapshot, error)
}

type Handler struct {
	source   OrderSource
	registry *Registry
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

type HandlerDeps struct {
	Source   OrderSource
	Registry *Registry
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		source:   hd.Source,
		registry: hd.Registry,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/track/orders/{number}", func(r chi.Router) {
		r.Get("/", h.GetOrder)
		r.Get("/stream", h.Stream)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// GetOrder returns the customer-safe view of one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	number := chi.URLParam(r, "number")
	if number == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order number required")
		return
	}

	snap, err := h.source.GetByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Errorf("cannot fetch order %s: %v", number, err)
		apt.RespondError(w, http.StatusBadGateway, "Order lookup unavailable")
		return
	}

	apt.RespondSuccess(w, PublicView(snap))
}

// Stream pushes status updates for one order over Server-Sent Events. The
// current state goes out first so late joiners see the full timeline.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order number required")
		return
	}

	snap, err := h.source.GetByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.log(r).Errorf("cannot fetch order %s: %v", number, err)
		apt.RespondError(w, http.StatusBadGateway, "Order lookup unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	watcherID := uuid.New().String()
	eventChan := h.registry.Join(number, watcherID)
	defer h.registry.Leave(number, watcherID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")

	h.sendEvent(w, "order-snapshot", PublicView(snap))

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case evt, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, "order-update", evt)
		}
	}
}

func (h *Handler) sendEvent(w http.ResponseWriter, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
