package orders

import (
	"context"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
)

// Repository is the durable order record store. Put is an upsert keyed by
// the settlement identifier: writing the same order twice leaves exactly one
// record and keeps the original created_at, so re-confirmation of a
// settlement can never duplicate or reorder an order.
type Repository interface {
	Put(ctx context.Context, order *domain.Order) error
	ListByShopper(ctx context.Context, shopperID string) ([]domain.Order, error)
	Close() error
}
