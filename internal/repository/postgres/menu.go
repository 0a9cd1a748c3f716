package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

// foreignKeyViolation is the PostgreSQL error code raised when a delete would
// orphan referencing order items.
const foreignKeyViolation = "23503"

// MenuRepository implements port.MenuRepository using PostgreSQL.
type MenuRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMenuRepository constructs a PostgreSQL-backed menu repository.
func NewMenuRepository(exec pgExecutor) *MenuRepository {
	repo := &MenuRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a new menu item.
func (r *MenuRepository) Create(ctx context.Context, item domain.MenuItem) error {
	stmt, args, err := r.builder.Insert("restaurant.menu_items").
		Columns("id", "name", "description", "price_cents", "category", "tags", "is_available").
		Values(item.ID, item.Name, item.Description, item.PriceCents, item.Category, item.Tags, item.IsAvailable).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert menu item sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}

	return nil
}

// GetByID retrieves a menu item by identifier.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "description", "price_cents", "category", "tags", "is_available").
		From("restaurant.menu_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select menu item sql: %w", err)
	}

	var item domain.MenuItem
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.Category,
		&item.Tags,
		&item.IsAvailable,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan menu item: %w", err)
	}

	return &item, nil
}

// List returns menu items, optionally narrowed by category or availability.
func (r *MenuRepository) List(ctx context.Context, filter port.MenuFilter) ([]domain.MenuItem, error) {
	query := r.builder.
		Select("id", "name", "description", "price_cents", "category", "tags", "is_available").
		From("restaurant.menu_items").
		OrderBy("category ASC", "name ASC")

	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.AvailableOnly {
		query = query.Where(squirrel.Eq{"is_available": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list menu items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.PriceCents,
			&item.Category,
			&item.Tags,
			&item.IsAvailable,
		); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}

	return items, nil
}

// Update replaces the editable fields of a menu item.
func (r *MenuRepository) Update(ctx context.Context, item domain.MenuItem) error {
	stmt, args, err := r.builder.Update("restaurant.menu_items").
		Set("name", item.Name).
		Set("description", item.Description).
		Set("price_cents", item.PriceCents).
		Set("category", item.Category).
		Set("tags", item.Tags).
		Set("is_available", item.IsAvailable).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update menu item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a menu item. Items referenced by order lines cannot be
// deleted and surface as ErrConflict.
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("restaurant.menu_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete menu item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("delete menu item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.MenuRepository = (*MenuRepository)(nil)
