package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
)

var (
	testCustomer = &domain.Account{ID: "cust-1", Username: "diner", Role: domain.RoleCustomer}
	testManager  = &domain.Account{ID: "mgr-1", Username: "boss", Role: domain.RoleManager}
)

func newOrderFixture(t *testing.T, orders ...domain.Order) (*OrderService, *testOrderRepo, *testMenuRepo, *testAuditRepo) {
	t.Helper()

	orderRepo := newTestOrderRepo(orders...)
	menuRepo := newTestMenuRepo(
		domain.MenuItem{ID: "dish-1", Name: "Adobo", PriceCents: 25000, Category: domain.CategoryMain, IsAvailable: true},
		domain.MenuItem{ID: "dish-2", Name: "Halo-halo", PriceCents: 15000, Category: domain.CategoryDessert, IsAvailable: false},
	)
	audit := &testAuditRepo{}

	svc := NewOrderService(orderRepo, menuRepo, newTestRecorder(audit))
	return svc, orderRepo, menuRepo, audit
}

func TestOrderCreate(t *testing.T) {
	svc, repo, _, audit := newOrderFixture(t)
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	lines := []OrderLineInput{{MenuItemID: "dish-1", Quantity: 2, Notes: " extra rice "}}
	order, err := svc.Create(context.Background(), testCustomer, "T-12", lines, testMeta)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if order.Status != domain.OrderPending || order.CustomerID != "cust-1" {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].Notes != "extra rice" {
		t.Fatalf("unexpected items %+v", order.Items)
	}
	if _, ok := repo.orders[order.ID]; !ok {
		t.Fatal("expected order persisted")
	}
	if audit.lastAction() != "order placed ("+order.ID+")" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}
}

func TestOrderCreateValidation(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	cases := []struct {
		name  string
		table string
		lines []OrderLineInput
		want  error
	}{
		{"no items", "T-1", nil, ErrInvalidOrder},
		{"table too long", strings.Repeat("x", 33), []OrderLineInput{{MenuItemID: "dish-1", Quantity: 1}}, ErrInvalidOrder},
		{"zero quantity", "T-1", []OrderLineInput{{MenuItemID: "dish-1", Quantity: 0}}, ErrInvalidOrder},
		{"quantity over cap", "T-1", []OrderLineInput{{MenuItemID: "dish-1", Quantity: 101}}, ErrInvalidOrder},
		{"notes too long", "T-1", []OrderLineInput{{MenuItemID: "dish-1", Quantity: 1, Notes: strings.Repeat("x", 256)}}, ErrInvalidOrder},
		{"unknown dish", "T-1", []OrderLineInput{{MenuItemID: "ghost", Quantity: 1}}, ErrItemUnavailable},
		{"dish off menu", "T-1", []OrderLineInput{{MenuItemID: "dish-2", Quantity: 1}}, ErrItemUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), testCustomer, tc.table, tc.lines, testMeta)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOrderGetScoping(t *testing.T) {
	own := domain.Order{ID: "ord-1", CustomerID: "cust-1", Status: domain.OrderPending}
	foreign := domain.Order{ID: "ord-2", CustomerID: "cust-2", Status: domain.OrderPending}

	svc, _, _, audit := newOrderFixture(t, own, foreign)

	if _, err := svc.Get(context.Background(), testCustomer, "ord-1", testMeta); err != nil {
		t.Fatalf("own order lookup failed: %v", err)
	}

	// A foreign order and a missing order give the same answer.
	if _, err := svc.Get(context.Background(), testCustomer, "ord-2", testMeta); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
	if audit.lastAction() != "order access refused (ord-2)" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}
	if _, err := svc.Get(context.Background(), testCustomer, "ghost", testMeta); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for missing order, got %v", err)
	}

	// Staff see everything.
	if _, err := svc.Get(context.Background(), testManager, "ord-2", testMeta); err != nil {
		t.Fatalf("manager lookup failed: %v", err)
	}
}

func TestOrderListForcesCustomerScope(t *testing.T) {
	own := domain.Order{ID: "ord-1", CustomerID: "cust-1", Status: domain.OrderPending}
	foreign := domain.Order{ID: "ord-2", CustomerID: "cust-2", Status: domain.OrderPending}

	svc, _, _, _ := newOrderFixture(t, own, foreign)

	// The requested filter cannot widen a customer's view.
	orders, err := svc.List(context.Background(), testCustomer, port.OrderFilter{CustomerID: "cust-2"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ord-1" {
		t.Fatalf("expected only own orders, got %+v", orders)
	}

	orders, err = svc.List(context.Background(), testManager, port.OrderFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected staff to see all orders, got %d", len(orders))
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
		ok   bool
	}{
		{domain.OrderPending, domain.OrderPreparing, true},
		{domain.OrderPending, domain.OrderCancelled, true},
		{domain.OrderPending, domain.OrderCompleted, false},
		{domain.OrderPreparing, domain.OrderCompleted, true},
		{domain.OrderPreparing, domain.OrderCancelled, true},
		{domain.OrderPreparing, domain.OrderPending, false},
		{domain.OrderCompleted, domain.OrderCancelled, false},
		{domain.OrderCancelled, domain.OrderPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			order := domain.Order{ID: "ord-1", CustomerID: "cust-2", Status: tc.from}
			svc, repo, _, _ := newOrderFixture(t, order)

			updated, err := svc.UpdateStatus(context.Background(), testManager, "ord-1", tc.to, testMeta)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected transition allowed, got %v", err)
				}
				if updated.Status != tc.to || repo.orders["ord-1"].Status != tc.to {
					t.Fatalf("status not applied, got %+v", updated)
				}
				return
			}
			if !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("expected ErrIllegalTransition, got %v", err)
			}
		})
	}
}

func TestOrderCustomerCancellation(t *testing.T) {
	pending := domain.Order{ID: "ord-1", CustomerID: "cust-1", Status: domain.OrderPending}
	preparing := domain.Order{ID: "ord-2", CustomerID: "cust-1", Status: domain.OrderPreparing}
	foreign := domain.Order{ID: "ord-3", CustomerID: "cust-2", Status: domain.OrderPending}

	svc, repo, _, audit := newOrderFixture(t, pending, preparing, foreign)

	// Customers may cancel their own pending orders and nothing else.
	if _, err := svc.UpdateStatus(context.Background(), testCustomer, "ord-1", domain.OrderCancelled, testMeta); err != nil {
		t.Fatalf("own pending cancel failed: %v", err)
	}
	if repo.orders["ord-1"].Status != domain.OrderCancelled {
		t.Fatal("expected order cancelled")
	}

	if _, err := svc.UpdateStatus(context.Background(), testCustomer, "ord-2", domain.OrderCancelled, testMeta); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition past pending, got %v", err)
	}
	if audit.lastAction() != "order status change refused (ord-2)" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}

	if _, err := svc.UpdateStatus(context.Background(), testCustomer, "ord-1", domain.OrderPreparing, testMeta); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected customers blocked from kitchen transitions, got %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), testCustomer, "ord-3", domain.OrderCancelled, testMeta); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected foreign order hidden, got %v", err)
	}
}
