package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

const accountColumns = "id, username, email, role, password_hash, failed_logins, locked_until, password_changed_at, security_question, security_answer_hash, last_login, created_at"

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	repo := &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	var question, answerHash any
	if account.SecurityQuestion != "" {
		question = account.SecurityQuestion
	}
	if account.SecurityAnswerHash != "" {
		answerHash = account.SecurityAnswerHash
	}

	query := r.builder.Insert("restaurant.accounts").
		Columns(
			"id",
			"username",
			"email",
			"role",
			"password_hash",
			"failed_logins",
			"locked_until",
			"password_changed_at",
			"security_question",
			"security_answer_hash",
			"last_login",
			"created_at",
		).
		Values(
			account.ID,
			account.Username,
			account.Email,
			account.Role,
			account.PasswordHash,
			account.FailedLogins,
			account.LockedUntil,
			account.PasswordChangedAt,
			question,
			answerHash,
			account.LastLogin,
			account.CreatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves an account by its username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *AccountRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(strings.Split(accountColumns, ", ")...).
		From("restaurant.accounts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account           domain.Account
		lockedUntil       *time.Time
		passwordChangedAt *time.Time
		lastLogin         *time.Time
		question          sql.NullString
		answerHash        sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.Role,
		&account.PasswordHash,
		&account.FailedLogins,
		&lockedUntil,
		&passwordChangedAt,
		&question,
		&answerHash,
		&lastLogin,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}

	account.LockedUntil = lockedUntil
	account.PasswordChangedAt = passwordChangedAt
	account.LastLogin = lastLogin
	if question.Valid {
		account.SecurityQuestion = question.String
	}
	if answerHash.Valid {
		account.SecurityAnswerHash = answerHash.String
	}

	return &account, nil
}

// List returns accounts with optional filtering and pagination.
func (r *AccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	query := r.builder.
		Select(strings.Split(accountColumns, ", ")...).
		From("restaurant.accounts").
		OrderBy("created_at DESC")

	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// RecordFailedAttempt increments the failure counter in a single statement so
// concurrent failures never lose an increment, and returns the new count.
func (r *AccountRepository) RecordFailedAttempt(ctx context.Context, id string) (int, error) {
	stmt := `
		UPDATE restaurant.accounts
		   SET failed_logins = failed_logins + 1
		 WHERE id = $1
		RETURNING failed_logins
	`

	var count int
	if err := r.exec.QueryRow(ctx, stmt, id).Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}

	return count, nil
}

// ApplyLock sets the lockout deadline and zeroes the failure counter.
func (r *AccountRepository) ApplyLock(ctx context.Context, id string, until time.Time) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("locked_until", until).
		Set("failed_logins", 0).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build apply lock sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("apply lock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearLock removes any lockout, zeroes the failure counter, and stamps the
// successful login time.
func (r *AccountRepository) ClearLock(ctx context.Context, id string, lastLogin time.Time) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("locked_until", nil).
		Set("failed_logins", 0).
		Set("last_login", lastLogin).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear lock sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear lock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the current password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetPasswordChangedAt stamps the password age reference point.
func (r *AccountRepository) SetPasswordChangedAt(ctx context.Context, id string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("password_changed_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password_changed_at sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password_changed_at: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateRole changes the account role.
func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("role", role).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetSecurityQuestion stores the recovery question and hashed answer.
func (r *AccountRepository) SetSecurityQuestion(ctx context.Context, id, question, answerHash string) error {
	stmt, args, err := r.builder.Update("restaurant.accounts").
		Set("security_question", question).
		Set("security_answer_hash", answerHash).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update security question sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update security question: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountAdmins returns the number of admin accounts.
func (r *AccountRepository) CountAdmins(ctx context.Context) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("restaurant.accounts").
		Where(squirrel.Eq{"role": domain.RoleAdmin}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count admins sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan admins count: %w", err)
	}

	return int(count), nil
}

// ListPasswordHistory retrieves the most recent password hashes for an account.
func (r *AccountRepository) ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	trimmedID := strings.TrimSpace(accountID)
	if trimmedID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	builder := r.builder.Select("id", "account_id", "password_hash", "changed_at").
		From("restaurant.password_history").
		Where(squirrel.Eq{"account_id": trimmedID}).
		OrderBy("changed_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password history sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query password history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.PasswordHistoryEntry, 0)
	for rows.Next() {
		var record domain.PasswordHistoryEntry
		if err := rows.Scan(&record.ID, &record.AccountID, &record.PasswordHash, &record.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan password history: %w", err)
		}
		history = append(history, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password history: %w", err)
	}

	return history, nil
}

// AddPasswordHistory inserts a password hash into the history table.
func (r *AccountRepository) AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error {
	accountID := strings.TrimSpace(entry.AccountID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(entry.PasswordHash) == "" {
		return fmt.Errorf("password hash is required")
	}

	changedAt := entry.ChangedAt
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}

	builder := r.builder.Insert("restaurant.password_history")
	if entry.ID != "" {
		builder = builder.Columns("id", "account_id", "password_hash", "changed_at").
			Values(entry.ID, accountID, entry.PasswordHash, changedAt)
	} else {
		builder = builder.Columns("account_id", "password_hash", "changed_at").
			Values(accountID, entry.PasswordHash, changedAt)
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert password history sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password history: %w", err)
	}

	return nil
}

// TrimPasswordHistory ensures only the most recent keep hashes are retained.
func (r *AccountRepository) TrimPasswordHistory(ctx context.Context, accountID string, keep int) error {
	if keep <= 0 {
		return nil
	}

	trimmedID := strings.TrimSpace(accountID)
	if trimmedID == "" {
		return fmt.Errorf("account id is required")
	}

	stmt := `
		DELETE FROM restaurant.password_history
		 WHERE account_id = $1
		   AND id NOT IN (
				SELECT id
				  FROM restaurant.password_history
				 WHERE account_id = $1
				 ORDER BY changed_at DESC
				 LIMIT $2
		   )
	`

	if _, err := r.exec.Exec(ctx, stmt, trimmedID, keep); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	return nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
