package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/security"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

var (
	// ErrResetNotReady indicates the flow was entered out of order; callers
	// send the user back to the first step.
	ErrResetNotReady = errors.New("password reset flow not ready")
	// ErrSecurityAnswerMismatch indicates the recovery answer did not match.
	ErrSecurityAnswerMismatch = errors.New("security answer does not match")
)

// PasswordResetService drives the recovery flow: identify the account,
// verify the security answer, then set a new password. Progress lives only
// in the server-side session, so a step cannot be skipped by crafting
// requests.
type PasswordResetService struct {
	accounts  port.AccountRepository
	sessions  port.SessionStore
	passwords *PasswordService
	audit     *AuditRecorder
	now       func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	accounts port.AccountRepository,
	sessions port.SessionStore,
	passwords *PasswordService,
	audit *AuditRecorder,
) *PasswordResetService {
	return &PasswordResetService{
		accounts:  accounts,
		sessions:  sessions,
		passwords: passwords,
		audit:     audit,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Start records the recovery target in the session. The response is the same
// whether the username exists, has no recovery question, or is fine; an
// observer learns nothing from this step.
func (s *PasswordResetService) Start(ctx context.Context, session *domain.Session, username string, meta RequestMeta) error {
	username = strings.TrimSpace(username)

	session.ResetTarget = ""
	session.ResetVerified = false

	account, err := s.accounts.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.audit.Record(ctx, "", "password reset requested for unknown username", username, domain.AuditInfo, meta.IP, meta.UserAgent)
	case err != nil:
		return fmt.Errorf("lookup account: %w", err)
	case !account.HasSecurityQuestion():
		s.audit.Record(ctx, account.ID, "password reset requested without recovery question", username, domain.AuditInfo, meta.IP, meta.UserAgent)
	default:
		session.ResetTarget = account.ID
		s.audit.Record(ctx, account.ID, "password reset started", username, domain.AuditInfo, meta.IP, meta.UserAgent)
	}

	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// Question returns the recovery question for the session's target.
func (s *PasswordResetService) Question(ctx context.Context, session *domain.Session) (string, error) {
	account, err := s.target(ctx, session)
	if err != nil {
		return "", err
	}
	return account.SecurityQuestion, nil
}

// Answer checks the recovery answer and, on match, unlocks the final step.
func (s *PasswordResetService) Answer(ctx context.Context, session *domain.Session, answer string, meta RequestMeta) error {
	account, err := s.target(ctx, session)
	if err != nil {
		return err
	}

	normalized := security.NormalizeAnswer(answer)
	ok, err := security.VerifyPassword(normalized, account.SecurityAnswerHash)
	if err != nil {
		return fmt.Errorf("verify security answer: %w", err)
	}
	if !ok {
		s.audit.Record(ctx, account.ID, "password reset answer rejected", "", domain.AuditFail, meta.IP, meta.UserAgent)
		return ErrSecurityAnswerMismatch
	}

	session.ResetVerified = true
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.audit.Record(ctx, account.ID, "password reset answer accepted", "", domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}

// Complete sets the new password, entered twice. It requires both the
// recovery target and a verified answer; otherwise the flow restarts from
// the beginning. Reset state survives a policy rejection so the user can
// retry the password without re-answering, and clears once the change
// commits.
func (s *PasswordResetService) Complete(ctx context.Context, session *domain.Session, newPassword, confirmPassword string, meta RequestMeta) error {
	if session == nil || session.ResetTarget == "" || !session.ResetVerified {
		return ErrResetNotReady
	}

	account, err := s.accounts.GetByID(ctx, session.ResetTarget)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetNotReady
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.passwords.validateWithConfirmation(ctx, account, newPassword, confirmPassword); err != nil {
		var policyErr *PolicyError
		if errors.As(err, &policyErr) {
			s.audit.Record(ctx, account.ID, "password reset rejected", "policy violation", domain.AuditFail, meta.IP, meta.UserAgent)
		}
		return err
	}

	if err := s.passwords.Apply(ctx, account, newPassword, "reset"); err != nil {
		return err
	}

	session.ResetTarget = ""
	session.ResetVerified = false
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.audit.Record(ctx, account.ID, "password reset completed", "", domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}

func (s *PasswordResetService) target(ctx context.Context, session *domain.Session) (*domain.Account, error) {
	if session == nil || session.ResetTarget == "" {
		return nil, ErrResetNotReady
	}

	account, err := s.accounts.GetByID(ctx, session.ResetTarget)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetNotReady
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.HasSecurityQuestion() {
		return nil, ErrResetNotReady
	}

	return account, nil
}
