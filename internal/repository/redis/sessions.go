package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

const (
	defaultSessionPrefix = "session"

	fieldAccountID     = "account_id"
	fieldCreatedAt     = "created_at"
	fieldResetTarget   = "reset_target"
	fieldResetVerified = "reset_verified"
	fieldReauthAt      = "reauth_at"
)

// SessionStore keeps session state in Redis hashes keyed by the opaque
// session id. The client only ever holds the id; reset-flow state and the
// re-auth timestamp stay server-side.
type SessionStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionStore constructs a Redis-backed session store with the given key
// prefix and idle TTL.
func NewSessionStore(client *red.Client, keyPrefix string, ttl time.Duration) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create persists a new session hash with the configured TTL.
func (s *SessionStore) Create(ctx context.Context, session domain.Session) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("session id is required")
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	key := s.key(session.ID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, sessionFields(session, createdAt))
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}

	return nil
}

// Get retrieves the session for the provided id.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.ErrNotFound
	}

	values, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall session: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	session := &domain.Session{
		ID:          id,
		AccountID:   values[fieldAccountID],
		CreatedAt:   createdAt,
		ResetTarget: values[fieldResetTarget],
	}

	if values[fieldResetVerified] == "1" {
		session.ResetVerified = true
	}

	if raw := values[fieldReauthAt]; raw != "" && raw != "0" {
		reauthAt, parseErr := parseUnix(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("parse reauth_at: %w", parseErr)
		}
		session.ReauthAt = reauthAt
	}

	return session, nil
}

// Save rewrites the session hash and refreshes the idle TTL.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("session id is required")
	}

	key := s.key(session.ID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, sessionFields(session, session.CreatedAt))
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}

	return nil
}

// Delete removes the session, ending it server-side.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return repository.ErrNotFound
	}

	deleted, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// WithClock overrides the internal clock, used in tests.
func (s *SessionStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func (s *SessionStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func sessionFields(session domain.Session, createdAt time.Time) map[string]any {
	verified := "0"
	if session.ResetVerified {
		verified = "1"
	}

	reauthAt := "0"
	if !session.ReauthAt.IsZero() {
		reauthAt = strconv.FormatInt(session.ReauthAt.Unix(), 10)
	}

	return map[string]any{
		fieldAccountID:     session.AccountID,
		fieldCreatedAt:     strconv.FormatInt(createdAt.Unix(), 10),
		fieldResetTarget:   session.ResetTarget,
		fieldResetVerified: verified,
		fieldReauthAt:      reauthAt,
	}
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.SessionStore = (*SessionStore)(nil)
