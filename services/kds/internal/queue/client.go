package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// POSClient talks to the POS service's authenticated order endpoints. The
// POS REST shape differs from the event shape (flat `id` and timestamps vs
// `order_id` and a nested timestamps block), so responses are normalized to
// event.OrderSnapshot at this boundary.
type POSClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewPOSClient creates a client for the POS service.
func NewPOSClient(baseURL, token string) *POSClient {
	return &POSClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// orderDTO accepts both the POS REST order shape and the event snapshot
// shape, so the same decoder serves fetch and event-replay call sites.
type orderDTO struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	Status        string               `json:"status"`
	OrderType     string               `json:"order_type"`
	TableNumber   string               `json:"table_number"`
	RoomNumber    string               `json:"room_number"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	Items         []event.ItemSnapshot `json:"items"`
	Pricing       event.PricingSnapshot `json:"pricing"`

	PlacedAt    *time.Time `json:"placed_at"`
	PreparingAt *time.Time `json:"preparing_at"`
	ReadyAt     *time.Time `json:"ready_at"`
	ServedAt    *time.Time `json:"served_at"`

	Timestamps *event.TimestampsSnapshot `json:"timestamps"`
}

func (d orderDTO) toSnapshot() event.OrderSnapshot {
	snap := event.OrderSnapshot{
		OrderID:       d.OrderID,
		OrderNumber:   d.OrderNumber,
		Status:        d.Status,
		OrderType:     d.OrderType,
		TableNumber:   d.TableNumber,
		RoomNumber:    d.RoomNumber,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Items:         d.Items,
		Pricing:       d.Pricing,
	}
	if snap.OrderID == "" {
		snap.OrderID = d.ID
	}
	if d.Timestamps != nil {
		snap.Timestamps = *d.Timestamps
	} else {
		if d.PlacedAt != nil {
			snap.Timestamps.PlacedAt = *d.PlacedAt
		}
		snap.Timestamps.PreparingAt = d.PreparingAt
		snap.Timestamps.ReadyAt = d.ReadyAt
		snap.Timestamps.ServedAt = d.ServedAt
	}
	return snap
}

// KitchenOrders fetches the active queue from the POS service.
func (c *POSClient) KitchenOrders(ctx context.Context) ([]event.OrderSnapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/pos/orders/kitchen", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching kitchen orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var envelope struct {
		Data struct {
			Orders []orderDTO `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding kitchen orders: %w", err)
	}

	orders := make([]event.OrderSnapshot, 0, len(envelope.Data.Orders))
	for _, dto := range envelope.Data.Orders {
		orders = append(orders, dto.toSnapshot())
	}
	return orders, nil
}

// UpdateStatus asks the POS service to move an order to newStatus and returns
// the server-confirmed order.
func (c *POSClient) UpdateStatus(ctx context.Context, orderID, newStatus string) (event.OrderSnapshot, error) {
	body, err := json.Marshal(map[string]string{"status": newStatus})
	if err != nil {
		return event.OrderSnapshot{}, err
	}

	path := fmt.Sprintf("/pos/orders/%s/status", orderID)
	req, err := c.newRequest(ctx, http.MethodPatch, path, bytes.NewReader(body))
	if err != nil {
		return event.OrderSnapshot{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return event.OrderSnapshot{}, fmt.Errorf("updating order status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return event.OrderSnapshot{}, c.statusError(resp)
	}

	var envelope struct {
		Data orderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return event.OrderSnapshot{}, fmt.Errorf("decoding updated order: %w", err)
	}
	return envelope.Data.toSnapshot(), nil
}

func (c *POSClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *POSClient) statusError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("pos service returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
}
