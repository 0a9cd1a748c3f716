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
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/security"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

var (
	// ErrUnknownRole indicates the requested role is not one of the known values.
	ErrUnknownRole = errors.New("unknown role")
	// ErrLastAdmin indicates the change would leave the system without any admin.
	ErrLastAdmin = errors.New("cannot demote the last administrator")
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidSecurityAnswer indicates the recovery answer failed validation.
	ErrInvalidSecurityAnswer = errors.New("invalid security answer")
)

// UserService covers account administration and self-service profile
// security settings.
type UserService struct {
	cfg       *config.AppConfig
	accounts  port.AccountRepository
	publisher port.EventPublisher
	audit     *AuditRecorder
	now       func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	publisher port.EventPublisher,
	audit *AuditRecorder,
) *UserService {
	return &UserService{
		cfg:       cfg,
		accounts:  accounts,
		publisher: publisher,
		audit:     audit,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *UserService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Get returns one account without credential material.
func (s *UserService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.SecurityAnswerHash = ""
	return &sanitized, nil
}

// List returns accounts matching the filter, credential material stripped.
func (s *UserService) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	for i := range accounts {
		accounts[i].PasswordHash = ""
		accounts[i].SecurityAnswerHash = ""
	}

	return accounts, nil
}

// ChangeRole moves an account to a new role. Demoting the only remaining
// administrator is refused so the system can never lose all admin access.
func (s *UserService) ChangeRole(ctx context.Context, actorID, accountID string, newRole domain.Role, meta RequestMeta) error {
	if !newRole.Valid() {
		return ErrUnknownRole
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.Role == newRole {
		return nil
	}

	if account.Role == domain.RoleAdmin && newRole != domain.RoleAdmin {
		admins, err := s.accounts.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			s.audit.Record(ctx, actorID, "role change refused", "last administrator", domain.AuditFail, meta.IP, meta.UserAgent)
			return ErrLastAdmin
		}
	}

	if err := s.accounts.UpdateRole(ctx, accountID, newRole); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	detail := fmt.Sprintf("%s: %s -> %s", account.Username, account.Role, newRole)
	s.audit.Record(ctx, actorID, "role changed", detail, domain.AuditSuccess, meta.IP, meta.UserAgent)

	if s.publisher != nil {
		event := domain.RoleChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: accountID,
			ActorID:   actorID,
			OldRole:   account.Role,
			NewRole:   newRole,
			ChangedAt: s.now().UTC(),
		}
		_ = s.publisher.PublishRoleChanged(ctx, event)
	}

	return nil
}

// SetSecurityQuestion stores the recovery question with a hashed, normalized
// answer. The caller is expected to have passed the re-auth gate.
func (s *UserService) SetSecurityQuestion(ctx context.Context, accountID, question, answer string, meta RequestMeta) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	question = strings.TrimSpace(question)
	if !security.ValidSecurityQuestion(question) {
		return fmt.Errorf("%w: unknown question", ErrInvalidSecurityAnswer)
	}

	attributes := []string{account.Username, emailLocalPart(account.Email)}
	if problems := security.AnswerViolations(answer, s.cfg.Security.SecurityAnswerMinLen, attributes...); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSecurityAnswer, strings.Join(problems, "; "))
	}

	hash, err := security.HashPassword(security.NormalizeAnswer(answer))
	if err != nil {
		return fmt.Errorf("hash security answer: %w", err)
	}

	if err := s.accounts.SetSecurityQuestion(ctx, accountID, question, hash); err != nil {
		return fmt.Errorf("store security question: %w", err)
	}

	s.audit.Record(ctx, accountID, "security question updated", "", domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}
