package port

import (
	"context"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	Role   domain.Role
	Limit  int
	Offset int
}

// AccountRepository persists accounts and their password history.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)

	// RecordFailedAttempt atomically increments the failure counter and
	// returns the post-increment value. Concurrent failures must not lose
	// increments.
	RecordFailedAttempt(ctx context.Context, id string) (int, error)
	// ApplyLock sets locked_until and resets the failure counter to zero in
	// one statement.
	ApplyLock(ctx context.Context, id string, until time.Time) error
	// ClearLock removes any lock, zeroes the counter, and stamps last_login.
	ClearLock(ctx context.Context, id string, lastLogin time.Time) error

	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetPasswordChangedAt(ctx context.Context, id string, changedAt time.Time) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	SetSecurityQuestion(ctx context.Context, id, question, answerHash string) error
	CountAdmins(ctx context.Context) (int, error)

	ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error)
	AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error
	TrimPasswordHistory(ctx context.Context, accountID string, keep int) error
}
