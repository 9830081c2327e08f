package track

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// ErrOrderNotFound is returned when the POS service has no order for the
// requested number.
var ErrOrderNotFound = errors.New("order not found")

// POSClient looks orders up by number on the POS service. The tracking
// service holds a service token; customers themselves are never
// authenticated.
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

// GetByNumber fetches one order by its public order number.
func (c *POSClient) GetByNumber(ctx context.Context, orderNumber string) (event.OrderSnapshot, error) {
	url := fmt.Sprintf("%s/pos/orders/number/%s", c.baseURL, orderNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return event.OrderSnapshot{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return event.OrderSnapshot{}, fmt.Errorf("fetching order %s: %w", orderNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return event.OrderSnapshot{}, ErrOrderNotFound
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return event.OrderSnapshot{}, fmt.Errorf("pos service returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var envelope struct {
		Data orderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return event.OrderSnapshot{}, fmt.Errorf("decoding order %s: %w", orderNumber, err)
	}
	return envelope.Data.toSnapshot(), nil
}

// orderDTO is the POS REST order shape (flat `id` and timestamps) mapped
// into the shared snapshot.
type orderDTO struct {
	ID          string                `json:"id"`
	OrderNumber string                `json:"order_number"`
	Status      string                `json:"status"`
	OrderType   string                `json:"order_type"`
	Items       []event.ItemSnapshot  `json:"items"`
	Pricing     event.PricingSnapshot `json:"pricing"`

	PlacedAt    time.Time  `json:"placed_at"`
	PreparingAt *time.Time `json:"preparing_at"`
	ReadyAt     *time.Time `json:"ready_at"`
	ServedAt    *time.Time `json:"served_at"`
}

func (d orderDTO) toSnapshot() event.OrderSnapshot {
	return event.OrderSnapshot{
		OrderID:     d.ID,
		OrderNumber: d.OrderNumber,
		Status:      d.Status,
		OrderType:   d.OrderType,
		Items:       d.Items,
		Pricing:     d.Pricing,
		Timestamps: event.TimestampsSnapshot{
			PlacedAt:    d.PlacedAt,
			PreparingAt: d.PreparingAt,
			ReadyAt:     d.ReadyAt,
			ServedAt:    d.ServedAt,
		},
	}
}
