package port

import (
	"context"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// MenuFilter narrows menu listings.
type MenuFilter struct {
	Category      domain.MenuCategory
	AvailableOnly bool
}

// MenuRepository persists menu items.
type MenuRepository interface {
	Create(ctx context.Context, item domain.MenuItem) error
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	List(ctx context.Context, filter MenuFilter) ([]domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) error
	// Delete fails with ErrConflict while order items still reference the dish.
	Delete(ctx context.Context, id string) error
}
