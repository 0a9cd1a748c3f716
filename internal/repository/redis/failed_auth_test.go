package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

func TestFailedAuthCache_SetAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewFailedAuthCache(client, "failed_auth", time.Hour)

	ctx := context.Background()
	at := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)

	marker := domain.FailedAuthMarker{Username: "diner", At: at, IP: "198.51.100.9"}
	if err := cache.Set(ctx, marker); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := cache.Get(ctx, "diner")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Username != "diner" || got.IP != "198.51.100.9" || !got.At.Equal(at) {
		t.Fatalf("unexpected marker %+v", got)
	}

	remaining := server.TTL("failed_auth:diner")
	if remaining <= 0 || remaining > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", remaining)
	}
}

func TestFailedAuthCache_OverwriteKeepsLatest(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewFailedAuthCache(client, "failed_auth", time.Hour)

	ctx := context.Background()
	first := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	if err := cache.Set(ctx, domain.FailedAuthMarker{Username: "diner", At: first, IP: "198.51.100.9"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := cache.Set(ctx, domain.FailedAuthMarker{Username: "diner", At: second, IP: "203.0.113.4"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := cache.Get(ctx, "diner")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.At.Equal(second) || got.IP != "203.0.113.4" {
		t.Fatalf("expected latest marker, got %+v", got)
	}
}

func TestFailedAuthCache_Miss(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewFailedAuthCache(client, "failed_auth", time.Minute)

	ctx := context.Background()
	if _, err := cache.Get(ctx, "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := cache.Set(ctx, domain.FailedAuthMarker{Username: "diner", At: time.Now().UTC()}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	server.FastForward(2 * time.Minute)

	if _, err := cache.Get(ctx, "diner"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected expired marker to read as missing, got %v", err)
	}
}
