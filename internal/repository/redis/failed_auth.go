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
	defaultFailedAuthPrefix = "failed_auth"

	fieldFailedAt = "at"
	fieldFailedIP = "ip"
)

// FailedAuthCache remembers the last failed login per username. It only
// feeds the post-login banner; entries expire on their own and errors are
// safe to ignore.
type FailedAuthCache struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewFailedAuthCache constructs a Redis-backed failed-auth marker cache.
func NewFailedAuthCache(client *red.Client, keyPrefix string, ttl time.Duration) *FailedAuthCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultFailedAuthPrefix
	}

	return &FailedAuthCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Set records the marker, overwriting any previous one for the username.
func (c *FailedAuthCache) Set(ctx context.Context, marker domain.FailedAuthMarker) error {
	username := strings.TrimSpace(marker.Username)
	if username == "" {
		return errors.New("username is required")
	}

	at := marker.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	key := c.key(username)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldFailedAt: strconv.FormatInt(at.Unix(), 10),
		fieldFailedIP: marker.IP,
	})
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed-auth marker: %w", err)
	}

	return nil
}

// Get retrieves the marker for the username, repository.ErrNotFound when the
// entry expired or never existed.
func (c *FailedAuthCache) Get(ctx context.Context, username string) (*domain.FailedAuthMarker, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, repository.ErrNotFound
	}

	values, err := c.client.HGetAll(ctx, c.key(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed-auth marker: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	at, err := parseUnix(values[fieldFailedAt])
	if err != nil {
		return nil, fmt.Errorf("parse failed-auth timestamp: %w", err)
	}

	return &domain.FailedAuthMarker{
		Username: username,
		At:       at,
		IP:       values[fieldFailedIP],
	}, nil
}

func (c *FailedAuthCache) key(username string) string {
	return fmt.Sprintf("%s:%s", c.prefix, username)
}

var _ port.FailedAuthCache = (*FailedAuthCache)(nil)
