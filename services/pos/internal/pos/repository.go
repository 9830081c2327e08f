package pos

import (
	"context"

	"github.com/google/uuid"
)

type OrderFilter struct {
	Statuses  []string
	OrderType string
	Limit     int
	Offset    int
}

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// List returns orders matching filter, sorted ascending by placed time.
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	// NextOrderNumber allocates the next number in the per-day sequence.
	NextOrderNumber(ctx context.Context) (string, error)
}
