package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
)

// AuditRepository implements port.AuditRepository using PostgreSQL. The table
// is append-only; nothing in the application updates or deletes rows.
type AuditRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository constructs a PostgreSQL-backed audit repository.
func NewAuditRepository(exec pgExecutor) *AuditRepository {
	repo := &AuditRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Append inserts one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	var accountID any
	if entry.AccountID != nil && *entry.AccountID != "" {
		accountID = *entry.AccountID
	}

	stmt, args, err := r.builder.Insert("restaurant.audit_log").
		Columns("id", "account_id", "action", "outcome", "ip", "user_agent", "created_at").
		Values(entry.ID, accountID, entry.Action, entry.Outcome, entry.IP, entry.UserAgent, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// List returns audit entries matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter port.AuditFilter) ([]domain.AuditEntry, error) {
	query := r.builder.
		Select("id", "account_id", "action", "outcome", "ip", "user_agent", "created_at").
		From("restaurant.audit_log").
		OrderBy("created_at DESC")

	if filter.AccountID != "" {
		query = query.Where(squirrel.Eq{"account_id": filter.AccountID})
	}

	if filter.Outcome != "" {
		query = query.Where(squirrel.Eq{"outcome": filter.Outcome})
	}

	if !filter.Since.IsZero() {
		query = query.Where(squirrel.GtOrEq{"created_at": filter.Since})
	}

	if !filter.Until.IsZero() {
		query = query.Where(squirrel.LtOrEq{"created_at": filter.Until})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			entry     domain.AuditEntry
			accountID sql.NullString
		)

		if err := rows.Scan(
			&entry.ID,
			&accountID,
			&entry.Action,
			&entry.Outcome,
			&entry.IP,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if accountID.Valid {
			val := accountID.String
			entry.AccountID = &val
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
