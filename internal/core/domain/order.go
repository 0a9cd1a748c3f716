package domain

import "time"

// OrderStatus tracks the kitchen lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next. Orders only
// move forward; cancellation is allowed until the order is completed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPreparing || next == OrderCancelled
	case OrderPreparing:
		return next == OrderCompleted || next == OrderCancelled
	}
	return false
}

// Order is a customer's order with its line items.
type Order struct {
	ID          string
	CustomerID  string
	Status      OrderStatus
	TableNumber string
	Items       []OrderItem
	CreatedAt   time.Time
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID         string
	OrderID    string
	MenuItemID string
	Quantity   int
	Notes      string
}

const (
	OrderTableNumberMaxLen = 32
	OrderItemMinQuantity   = 1
	OrderItemMaxQuantity   = 100
	OrderItemNotesMaxLen   = 255
)
