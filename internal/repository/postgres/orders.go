package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

// OrderRepository implements port.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOrderRepository constructs a PostgreSQL-backed order repository.
func NewOrderRepository(exec pgExecutor) *OrderRepository {
	repo := &OrderRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts the order and all of its items in one transaction. An order
// is never visible without its lines.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	if r.pool == nil {
		return r.create(ctx, r.exec, order)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.create(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}

	return nil
}

func (r *OrderRepository) create(ctx context.Context, exec pgExecutor, order domain.Order) error {
	stmt, args, err := r.builder.Insert("restaurant.orders").
		Columns("id", "customer_id", "status", "table_number", "created_at").
		Values(order.ID, order.CustomerID, order.Status, order.TableNumber, order.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order sql: %w", err)
	}

	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	itemsQuery := r.builder.Insert("restaurant.order_items").
		Columns("id", "order_id", "menu_item_id", "quantity", "notes")
	for _, item := range order.Items {
		itemsQuery = itemsQuery.Values(item.ID, order.ID, item.MenuItemID, item.Quantity, item.Notes)
	}

	stmt, args, err = itemsQuery.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order items sql: %w", err)
	}

	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	return nil
}

// GetByID retrieves an order together with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	stmt, args, err := r.builder.
		Select("id", "customer_id", "status", "table_number", "created_at").
		From("restaurant.orders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order sql: %w", err)
	}

	var order domain.Order
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&order.ID,
		&order.CustomerID,
		&order.Status,
		&order.TableNumber,
		&order.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	items, err := r.listItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

// List returns orders matching the filter, newest first, items included.
func (r *OrderRepository) List(ctx context.Context, filter port.OrderFilter) ([]domain.Order, error) {
	query := r.builder.
		Select("id", "customer_id", "status", "table_number", "created_at").
		From("restaurant.orders").
		OrderBy("created_at DESC")

	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.Status,
			&order.TableNumber,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	stmt, args, err := r.builder.
		Select("id", "order_id", "menu_item_id", "quantity", "notes").
		From("restaurant.order_items").
		Where(squirrel.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// UpdateStatus moves an order to the given status. Transition legality is
// enforced by the use case layer.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	stmt, args, err := r.builder.Update("restaurant.orders").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update order status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
