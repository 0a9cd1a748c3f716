package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

var (
	// ErrOrderNotFound covers both missing orders and orders the caller may
	// not see. The two are indistinguishable on purpose.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidOrder indicates the order failed validation.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrIllegalTransition indicates the status move is not allowed.
	ErrIllegalTransition = errors.New("illegal order status transition")
	// ErrItemUnavailable indicates an ordered dish is missing or off menu.
	ErrItemUnavailable = errors.New("menu item unavailable")
)

// OrderService manages the order lifecycle. Customers act only on their own
// orders; managers and admins act on all of them.
type OrderService struct {
	orders port.OrderRepository
	menu   port.MenuRepository
	audit  *AuditRecorder
	now    func() time.Time
}

// NewOrderService constructs an OrderService instance.
func NewOrderService(orders port.OrderRepository, menu port.MenuRepository, audit *AuditRecorder) *OrderService {
	return &OrderService{
		orders: orders,
		menu:   menu,
		audit:  audit,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *OrderService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// OrderLineInput is one requested dish with quantity.
type OrderLineInput struct {
	MenuItemID string
	Quantity   int
	Notes      string
}

// Create places a new order for the customer. Every referenced dish must
// exist and be available at placement time.
func (s *OrderService) Create(ctx context.Context, customer *domain.Account, tableNumber string, lines []OrderLineInput, meta RequestMeta) (*domain.Order, error) {
	tableNumber = strings.TrimSpace(tableNumber)
	if len(tableNumber) > domain.OrderTableNumberMaxLen {
		return nil, fmt.Errorf("%w: table number too long", ErrInvalidOrder)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		Status:      domain.OrderPending,
		TableNumber: tableNumber,
		CreatedAt:   s.now().UTC(),
	}

	for _, line := range lines {
		if line.Quantity < domain.OrderItemMinQuantity || line.Quantity > domain.OrderItemMaxQuantity {
			return nil, fmt.Errorf("%w: quantity out of range", ErrInvalidOrder)
		}
		if len(line.Notes) > domain.OrderItemNotesMaxLen {
			return nil, fmt.Errorf("%w: notes too long", ErrInvalidOrder)
		}

		item, err := s.menu.GetByID(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrItemUnavailable
			}
			return nil, fmt.Errorf("lookup menu item: %w", err)
		}
		if !item.IsAvailable {
			return nil, ErrItemUnavailable
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: item.ID,
			Quantity:   line.Quantity,
			Notes:      strings.TrimSpace(line.Notes),
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.audit.Record(ctx, customer.ID, "order placed", order.ID, domain.AuditSuccess, meta.IP, meta.UserAgent)
	return &order, nil
}

// Get returns the order if the actor is allowed to see it. Customers get the
// same not-found answer for foreign orders as for missing ones.
func (s *OrderService) Get(ctx context.Context, actor *domain.Account, id string, meta RequestMeta) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	if !actor.IsPrivileged() && order.CustomerID != actor.ID {
		s.audit.Record(ctx, actor.ID, "order access refused", id, domain.AuditFail, meta.IP, meta.UserAgent)
		return nil, ErrOrderNotFound
	}

	return order, nil
}

// List returns orders visible to the actor. Customers are always scoped to
// their own orders regardless of the requested filter.
func (s *OrderService) List(ctx context.Context, actor *domain.Account, filter port.OrderFilter) ([]domain.Order, error) {
	if !actor.IsPrivileged() {
		filter.CustomerID = actor.ID
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along the lifecycle. Staff may apply any legal
// transition; customers may only cancel their own pending orders.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *domain.Account, id string, next domain.OrderStatus, meta RequestMeta) (*domain.Order, error) {
	if !next.Valid() {
		return nil, ErrIllegalTransition
	}

	order, err := s.Get(ctx, actor, id, meta)
	if err != nil {
		return nil, err
	}

	if !actor.IsPrivileged() {
		if next != domain.OrderCancelled || order.Status != domain.OrderPending {
			s.audit.Record(ctx, actor.ID, "order status change refused", id, domain.AuditFail, meta.IP, meta.UserAgent)
			return nil, ErrIllegalTransition
		}
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, ErrIllegalTransition
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	detail := fmt.Sprintf("%s: %s -> %s", id, order.Status, next)
	s.audit.Record(ctx, actor.ID, "order status changed", detail, domain.AuditSuccess, meta.IP, meta.UserAgent)

	order.Status = next
	return order, nil
}
