package pos

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hotelpos/hotelpos/pkg/enums/orderstatus"
	"github.com/hotelpos/hotelpos/pkg/enums/ordertype"
	"github.com/hotelpos/hotelpos/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	repo      OrderRepo
	publisher events.Publisher
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	tokens    []string
}

type HandlerDeps struct {
	Repo      OrderRepo
	Publisher events.Publisher
	Tokens    []string
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:      hd.Repo,
		publisher: hd.Publisher,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		tokens:    hd.Tokens,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pos/orders", func(r chi.Router) {
		r.Use(BearerAuth(h.tokens))
		r.Post("/", h.CreateOrder)
		r.Get("/kitchen", h.KitchenOrders)
		r.Get("/number/{number}", h.GetOrderByNumber)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

type createOrderPayload struct {
	OrderType     string  `json:"order_type"`
	TableNumber   string  `json:"table_number"`
	RoomNumber    string  `json:"room_number"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	TaxRate       float64 `json:"tax_rate"`
	Discount      float64 `json:"discount"`
	Items         []struct {
		Name        string  `json:"name"`
		Variant     string  `json:"variant"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
		PrepMinutes int     `json:"prep_minutes"`
	} `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload createOrderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if ordertype.ByName(payload.OrderType) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Unknown order type")
		return
	}

	if len(payload.Items) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Order requires at least one item")
		return
	}

	order := NewOrder(payload.OrderType)
	order.TableNumber = payload.TableNumber
	order.RoomNumber = payload.RoomNumber
	order.CustomerName = payload.CustomerName
	order.CustomerPhone = payload.CustomerPhone

	for _, item := range payload.Items {
		if item.Name == "" || item.Quantity <= 0 {
			apt.RespondError(w, http.StatusBadRequest, "Items require a name and a positive quantity")
			return
		}
		order.Items = append(order.Items, LineItem{
			Name:        item.Name,
			Variant:     item.Variant,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			PrepMinutes: item.PrepMinutes,
		})
	}

	order.ComputeTotals(payload.TaxRate, payload.Discount)

	number, err := h.repo.NextOrderNumber(ctx)
	if err != nil {
		log.Errorf("cannot allocate order number: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not allocate order number")
		return
	}
	order.OrderNumber = number

	order.BeforeCreate()
	if err := h.repo.Create(ctx, order); err != nil {
		log.Errorf("cannot create order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	h.publishCreated(ctx, order)

	log.Info("order created", "order_id", order.ID.String(), "order_number", order.OrderNumber)
	apt.Respond(w, http.StatusCreated, order, nil)
}

// KitchenOrders returns the active queue (pending and preparing) oldest first.
func (h *Handler) KitchenOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.KitchenOrders")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	filter := OrderFilter{
		Statuses: []string{
			orderstatus.Statuses.Pending.Name,
			orderstatus.Statuses.Preparing.Name,
		},
	}

	orders, err := h.repo.List(ctx, filter)
	if err != nil {
		log.Errorf("cannot list kitchen orders: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list kitchen orders")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
	}, nil)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.RespondSuccess(w, order)
}

func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderByNumber")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	number := chi.URLParam(r, "number")
	if number == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order number required")
		return
	}

	order, err := h.repo.GetByNumber(ctx, number)
	if err != nil || order == nil {
		log.Errorf("cannot find order %s: %v", number, err)
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.RespondSuccess(w, order)
}

// UpdateStatus validates and applies a status transition, then publishes the
// change. The updated order is returned so clients can reconcile optimistic
// state against server truth.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateStatus")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if orderstatus.ByName(payload.Status) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if !orderstatus.CanTransition(order.Status, payload.Status) {
		apt.RespondError(w, http.StatusConflict, "Illegal status transition")
		return
	}

	previousStatus := order.Status
	order.ApplyStatus(payload.Status)

	if err := h.repo.Save(ctx, order); err != nil {
		log.Errorf("cannot update order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	h.publishStatusChange(ctx, order, previousStatus)

	log.Info("order status updated",
		"order_id", order.ID.String(),
		"previous_status", previousStatus,
		"new_status", order.Status,
	)
	apt.RespondSuccess(w, order)
}

func (h *Handler) publishCreated(ctx context.Context, order *Order) {
	evt := event.OrderCreatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:   event.EventOrderCreated,
			OccurredAt:  time.Now().UTC(),
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
		},
		Order: order.Snapshot(),
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.OrdersTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish order.created event: %v", err)
	}
}

func (h *Handler) publishStatusChange(ctx context.Context, order *Order, previousStatus string) {
	evt := event.OrderUpdatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:   event.EventOrderUpdated,
			OccurredAt:  time.Now().UTC(),
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
		},
		PreviousStatus: previousStatus,
		Order:          order.Snapshot(),
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.OrdersTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish order.updated event: %v", err)
	}

	if !orderstatus.IsActive(order.Status) {
		completed := event.OrderCompletedEvent{
			OrderEventMetadata: event.OrderEventMetadata{
				EventType:   event.EventOrderCompleted,
				OccurredAt:  time.Now().UTC(),
				OrderID:     order.ID.String(),
				OrderNumber: order.OrderNumber,
			},
			FinalStatus: order.Status,
		}
		completedBytes, _ := json.Marshal(completed)
		if err := h.publisher.Publish(ctx, event.OrdersTopic, completedBytes); err != nil {
			h.logger.Errorf("Failed to publish order.completed event: %v", err)
		}
	}
}
