package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
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
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidRegistration indicates malformed registration input.
	ErrInvalidRegistration = errors.New("invalid registration input")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// RegistrationInput carries the self-service sign-up form.
type RegistrationInput struct {
	Username string
	Email    string
	Password string
	Question string
	Answer   string
}

// RegistrationService creates customer accounts.
type RegistrationService struct {
	cfg      *config.AppConfig
	accounts port.AccountRepository
	audit    *AuditRecorder
	now      func() time.Time
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(cfg *config.AppConfig, accounts port.AccountRepository, audit *AuditRecorder) *RegistrationService {
	return &RegistrationService{
		cfg:      cfg,
		accounts: accounts,
		audit:    audit,
		now:      time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates a new customer account. Sign-ups always get the customer
// role; privileged roles are only ever granted by an administrator.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput, meta RequestMeta) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of letters, digits, dot, dash, underscore", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email address", ErrInvalidRegistration)
	}

	attributes := []string{username, emailLocalPart(email)}
	validator := security.PolicyValidator(s.cfg.Security.RegisterMinPwdLength, s.cfg.Security.MinStrengthScore, attributes...)
	if violations := validator.Validate(input.Password); len(violations) > 0 {
		return nil, &PolicyError{Violations: violations}
	}

	question := strings.TrimSpace(input.Question)
	answerHash := ""
	if question != "" {
		if !security.ValidSecurityQuestion(question) {
			return nil, fmt.Errorf("%w: unknown security question", ErrInvalidRegistration)
		}
		if problems := security.AnswerViolations(input.Answer, s.cfg.Security.SecurityAnswerMinLen, attributes...); len(problems) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRegistration, strings.Join(problems, "; "))
		}
		hash, err := security.HashPassword(security.NormalizeAnswer(input.Answer))
		if err != nil {
			return nil, fmt.Errorf("hash security answer: %w", err)
		}
		answerHash = hash
	}

	if err := s.ensureUnique(ctx, username, email); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:                 uuid.NewString(),
		Username:           username,
		Email:              email,
		Role:               domain.RoleCustomer,
		PasswordHash:       passwordHash,
		PasswordChangedAt:  &now,
		SecurityQuestion:   question,
		SecurityAnswerHash: answerHash,
		CreatedAt:          now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.audit.Record(ctx, account.ID, "account registered", username, domain.AuditSuccess, meta.IP, meta.UserAgent)

	sanitized := account
	sanitized.PasswordHash = ""
	sanitized.SecurityAnswerHash = ""

	return &sanitized, nil
}

func (s *RegistrationService) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	return nil
}
