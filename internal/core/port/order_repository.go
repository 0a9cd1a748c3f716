package port

import (
	"context"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID string
	Status     domain.OrderStatus
	Limit      int
	Offset     int
}

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	// Create inserts the order and all its items in one transaction.
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}
