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
)

// PolicyError aggregates every rule the candidate password broke. Callers
// get the full list at once instead of fixing violations one at a time.
type PolicyError struct {
	Violations []security.Violation
}

func (e *PolicyError) Error() string {
	if len(e.Violations) == 0 {
		return "password rejected by policy"
	}
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return strings.Join(messages, "; ")
}

// PasswordService owns the password lifecycle: policy validation, reuse
// prevention, minimum age, and the history bookkeeping around every change.
type PasswordService struct {
	cfg       *config.AppConfig
	accounts  port.AccountRepository
	publisher port.EventPublisher
	audit     *AuditRecorder
	now       func() time.Time
}

// NewPasswordService constructs a PasswordService instance.
func NewPasswordService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	publisher port.EventPublisher,
	audit *AuditRecorder,
) *PasswordService {
	return &PasswordService{
		cfg:       cfg,
		accounts:  accounts,
		publisher: publisher,
		audit:     audit,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PasswordService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Validate runs the full policy against a candidate for an existing account:
// composition rules, strength, similarity to the username and email,
// reuse against the current hash and recent history, and minimum age.
// All violations are accumulated.
func (s *PasswordService) Validate(ctx context.Context, account *domain.Account, candidate string) error {
	violations := s.policyViolations(account, candidate, s.cfg.Security.MinPasswordLength)

	reused, err := s.isReused(ctx, account, candidate)
	if err != nil {
		return err
	}
	if reused {
		violations = append(violations, security.Violation{
			Code:    "reused",
			Message: fmt.Sprintf("password must differ from your last %d passwords", s.cfg.Security.PasswordHistoryDepth),
		})
	}

	if v := s.minAgeViolation(account); v != nil {
		violations = append(violations, *v)
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

func (s *PasswordService) policyViolations(account *domain.Account, candidate string, minLength int) []security.Violation {
	attributes := []string{account.Username, emailLocalPart(account.Email)}
	validator := security.PolicyValidator(minLength, s.cfg.Security.MinStrengthScore, attributes...)
	return validator.Validate(candidate)
}

func (s *PasswordService) isReused(ctx context.Context, account *domain.Account, candidate string) (bool, error) {
	if ok, err := security.VerifyPassword(candidate, account.PasswordHash); err == nil && ok {
		return true, nil
	}

	history, err := s.accounts.ListPasswordHistory(ctx, account.ID, s.cfg.Security.PasswordHistoryDepth)
	if err != nil {
		return false, fmt.Errorf("list password history: %w", err)
	}

	for _, entry := range history {
		if ok, err := security.VerifyPassword(candidate, entry.PasswordHash); err == nil && ok {
			return true, nil
		}
	}

	return false, nil
}

func (s *PasswordService) minAgeViolation(account *domain.Account) *security.Violation {
	if account.PasswordChangedAt == nil {
		return nil
	}

	age := s.now().UTC().Sub(*account.PasswordChangedAt)
	if age >= s.cfg.Security.MinPasswordAge {
		return nil
	}

	remaining := s.cfg.Security.MinPasswordAge - age
	return &security.Violation{
		Code:    "too_young",
		Message: fmt.Sprintf("password was changed recently, try again in %s", remaining.Round(time.Minute)),
	}
}

// validateWithConfirmation runs the full policy and folds in a mismatch
// violation when the two entries differ, so the caller reports everything
// wrong with the submission at once.
func (s *PasswordService) validateWithConfirmation(ctx context.Context, account *domain.Account, newPassword, confirmPassword string) error {
	err := s.Validate(ctx, account, newPassword)
	if newPassword == confirmPassword {
		return err
	}

	mismatch := security.Violation{Code: "password_mismatch", Message: "new passwords do not match"}
	var policyErr *PolicyError
	if errors.As(err, &policyErr) {
		policyErr.Violations = append(policyErr.Violations, mismatch)
		return policyErr
	}
	if err != nil {
		return err
	}
	return &PolicyError{Violations: []security.Violation{mismatch}}
}

// Change verifies the current password and applies the new one, which must be
// entered twice. The caller is expected to have already passed the re-auth
// gate.
func (s *PasswordService) Change(ctx context.Context, accountID, currentPassword, newPassword, confirmPassword string, meta RequestMeta) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		s.audit.Record(ctx, account.ID, "password change rejected", "wrong current password", domain.AuditFail, meta.IP, meta.UserAgent)
		return ErrInvalidCredentials
	}

	if err := s.validateWithConfirmation(ctx, account, newPassword, confirmPassword); err != nil {
		var policyErr *PolicyError
		if errors.As(err, &policyErr) {
			s.audit.Record(ctx, account.ID, "password change rejected", "policy violation", domain.AuditFail, meta.IP, meta.UserAgent)
		}
		return err
	}

	if err := s.Apply(ctx, account, newPassword, "change"); err != nil {
		return err
	}

	s.audit.Record(ctx, account.ID, "password changed", "", domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}

// Apply swaps in the new password. The outgoing hash is snapshotted into
// history before the swap, then the change timestamp is stamped, so a crash
// in between never loses the old hash for reuse checks.
func (s *PasswordService) Apply(ctx context.Context, account *domain.Account, newPassword, source string) error {
	now := s.now().UTC()

	snapshot := domain.PasswordHistoryEntry{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		PasswordHash: account.PasswordHash,
		ChangedAt:    now,
	}
	if err := s.accounts.AddPasswordHistory(ctx, snapshot); err != nil {
		return fmt.Errorf("snapshot password history: %w", err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.accounts.SetPasswordChangedAt(ctx, account.ID, now); err != nil {
		return fmt.Errorf("stamp password change: %w", err)
	}

	if err := s.accounts.TrimPasswordHistory(ctx, account.ID, s.cfg.Security.PasswordHistoryDepth); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	if s.publisher != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: now,
			Source:    source,
		}
		_ = s.publisher.PublishPasswordChanged(ctx, event)
	}

	return nil
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
