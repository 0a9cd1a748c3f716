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
	// ErrInvalidCredentials indicates the username or password is incorrect.
	// The message never distinguishes the two.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked indicates the account is inside a lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrReauthRequired indicates the caller must re-enter the password
	// before reaching a sensitive operation.
	ErrReauthRequired = errors.New("recent password confirmation required")
	// ErrSessionNotFound indicates the session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// LockoutError carries the lockout deadline alongside ErrAccountLocked so
// callers can show the remaining wait.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account temporarily locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *LockoutError) Unwrap() error {
	return ErrAccountLocked
}

// LastUse summarizes prior account activity for the post-login notice.
type LastUse struct {
	LastLogin  *time.Time
	LastFailed *domain.FailedAuthMarker
}

// UseBanner is the single "last account use" notice shown after login.
type UseBanner struct {
	Failed bool
	At     time.Time
	IP     string
}

// Banner picks the more recent of the previous successful login and the
// cached failure. Failures carry the source IP. Nil on a first login with a
// clean history.
func (u *LastUse) Banner() *UseBanner {
	if u == nil {
		return nil
	}

	var failedAt time.Time
	if u.LastFailed != nil {
		failedAt = u.LastFailed.At
	}

	switch {
	case !failedAt.IsZero() && (u.LastLogin == nil || failedAt.After(*u.LastLogin)):
		return &UseBanner{Failed: true, At: failedAt, IP: u.LastFailed.IP}
	case u.LastLogin != nil:
		return &UseBanner{At: *u.LastLogin}
	default:
		return nil
	}
}

// RequestMeta carries client attribution for audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthService is the single entry point for credential checks. Every login
// attempt, successful or not, produces exactly one audit entry.
type AuthService struct {
	cfg        *config.AppConfig
	accounts   port.AccountRepository
	sessions   port.SessionStore
	failedAuth port.FailedAuthCache
	publisher  port.EventPublisher
	audit      *AuditRecorder
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	sessions port.SessionStore,
	failedAuth port.FailedAuthCache,
	publisher port.EventPublisher,
	audit *AuditRecorder,
) *AuthService {
	return &AuthService{
		cfg:        cfg,
		accounts:   accounts,
		sessions:   sessions,
		failedAuth: failedAuth,
		publisher:  publisher,
		audit:      audit,
		now:        time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login validates credentials, enforcing the lockout policy before the
// password is ever compared. On success the failure counter resets and the
// login timestamp is stamped.
func (s *AuthService) Login(ctx context.Context, username, password string, meta RequestMeta) (*domain.Account, *LastUse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now().UTC()

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.audit.Record(ctx, "", "login failed", username, domain.AuditFail, meta.IP, meta.UserAgent)
			s.markFailedAuth(ctx, username, now, meta.IP)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup account: %w", err)
	}

	if account.IsLockedNow(now) {
		s.audit.Record(ctx, account.ID, "login rejected while locked", username, domain.AuditFail, meta.IP, meta.UserAgent)
		s.markFailedAuth(ctx, username, now, meta.IP)
		return nil, nil, &LockoutError{Until: *account.LockedUntil}
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, s.handleFailedPassword(ctx, account, now, meta)
	}

	// Successful login: the counter resets and any expired lock clears.
	if err := s.accounts.ClearLock(ctx, account.ID, now); err != nil {
		return nil, nil, fmt.Errorf("clear lock state: %w", err)
	}

	lastUse := &LastUse{LastLogin: account.LastLogin}
	if marker, cacheErr := s.failedAuth.Get(ctx, username); cacheErr == nil {
		lastUse.LastFailed = marker
	}

	s.audit.Record(ctx, account.ID, "login succeeded", username, domain.AuditSuccess, meta.IP, meta.UserAgent)

	refreshed := *account
	refreshed.FailedLogins = 0
	refreshed.LockedUntil = nil
	refreshed.LastLogin = &now

	return &refreshed, lastUse, nil
}

func (s *AuthService) handleFailedPassword(ctx context.Context, account *domain.Account, now time.Time, meta RequestMeta) error {
	s.markFailedAuth(ctx, account.Username, now, meta.IP)

	count, err := s.accounts.RecordFailedAttempt(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	if count < s.cfg.Security.MaxFailedAttempts {
		s.audit.Record(ctx, account.ID, "login failed", account.Username, domain.AuditFail, meta.IP, meta.UserAgent)
		return ErrInvalidCredentials
	}

	until := now.Add(s.cfg.Security.LockoutCooldown)
	if err := s.accounts.ApplyLock(ctx, account.ID, until); err != nil {
		return fmt.Errorf("apply lock: %w", err)
	}

	s.audit.Record(ctx, account.ID, "account locked after repeated failures", account.Username, domain.AuditFail, meta.IP, meta.UserAgent)

	if s.publisher != nil {
		event := domain.AccountLockedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			Username:    account.Username,
			LockedUntil: until,
			IP:          meta.IP,
		}
		// Events are best-effort; the lock itself already committed.
		_ = s.publisher.PublishAccountLocked(ctx, event)
	}

	return &LockoutError{Until: until}
}

func (s *AuthService) markFailedAuth(ctx context.Context, username string, at time.Time, ip string) {
	marker := domain.FailedAuthMarker{Username: username, At: at, IP: ip}
	// Marker loss only degrades the post-login notice.
	_ = s.failedAuth.Set(ctx, marker)
}

// StartSession binds a fresh session to the account and returns it. The
// session id is the only value the client ever holds.
func (s *AuthService) StartSession(ctx context.Context, accountID string) (*domain.Session, error) {
	session := domain.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &session, nil
}

// ResumeSession loads the session for the given id.
func (s *AuthService) ResumeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return session, nil
}

// EndSession deletes the session server-side.
func (s *AuthService) EndSession(ctx context.Context, session *domain.Session, meta RequestMeta) error {
	if session == nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit.Record(ctx, session.AccountID, "logout", "", domain.AuditInfo, meta.IP, meta.UserAgent)
	return nil
}

// Reauthenticate verifies the current password and stamps the session's
// re-auth time. Lockout accounting applies the same as on login.
func (s *AuthService) Reauthenticate(ctx context.Context, session *domain.Session, password string, meta RequestMeta) error {
	if !session.Authenticated() {
		return ErrSessionNotFound
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	now := s.now().UTC()
	if account.IsLockedNow(now) {
		s.audit.Record(ctx, account.ID, "re-auth rejected while locked", "", domain.AuditFail, meta.IP, meta.UserAgent)
		return &LockoutError{Until: *account.LockedUntil}
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return s.handleFailedReauth(ctx, account, now, meta)
	}

	session.ReauthAt = now
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.audit.Record(ctx, account.ID, "re-auth succeeded", "", domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}

// handleFailedReauth shares the lockout accounting with login but never
// writes the failed-auth marker: the last-use banner reports attempts against
// the login form, and a re-auth failure happens inside an already
// authenticated session.
func (s *AuthService) handleFailedReauth(ctx context.Context, account *domain.Account, now time.Time, meta RequestMeta) error {
	count, err := s.accounts.RecordFailedAttempt(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	if count < s.cfg.Security.MaxFailedAttempts {
		s.audit.Record(ctx, account.ID, "re-auth failed", "", domain.AuditFail, meta.IP, meta.UserAgent)
		return ErrInvalidCredentials
	}

	until := now.Add(s.cfg.Security.LockoutCooldown)
	if err := s.accounts.ApplyLock(ctx, account.ID, until); err != nil {
		return fmt.Errorf("apply lock: %w", err)
	}

	s.audit.Record(ctx, account.ID, "account locked after repeated failures", account.Username, domain.AuditFail, meta.IP, meta.UserAgent)
	return &LockoutError{Until: until}
}

// RequireFreshReauth reports whether the session's last password re-entry is
// inside the configured window.
func (s *AuthService) RequireFreshReauth(session *domain.Session) error {
	if !session.ReauthFresh(s.now().UTC(), s.cfg.Security.ReauthWindow) {
		return ErrReauthRequired
	}
	return nil
}
