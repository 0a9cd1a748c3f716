package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

func TestAuditRecord(t *testing.T) {
	sink := &testAuditRepo{}
	recorder := NewAuditRecorder(sink, zap.NewNop())

	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	recorder.WithClock(func() time.Time { return now })

	recorder.Record(context.Background(), "acc-1", "login succeeded", "diner", domain.AuditSuccess, "203.0.113.7", "go-test")

	if len(sink.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(sink.entries))
	}

	entry := sink.entries[0]
	if entry.Action != "login succeeded (diner)" {
		t.Fatalf("unexpected action %q", entry.Action)
	}
	if entry.AccountID == nil || *entry.AccountID != "acc-1" {
		t.Fatalf("unexpected account id %v", entry.AccountID)
	}
	if entry.Outcome != domain.AuditSuccess || entry.IP != "203.0.113.7" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, entry.CreatedAt)
	}
	if entry.ID == "" {
		t.Fatal("expected a generated entry id")
	}
}

func TestAuditRecordAnonymous(t *testing.T) {
	sink := &testAuditRepo{}
	recorder := NewAuditRecorder(sink, zap.NewNop())

	recorder.Record(context.Background(), "", "login failed", "ghost", domain.AuditFail, "", "")

	if sink.entries[0].AccountID != nil {
		t.Fatal("anonymous entries must carry a nil account id")
	}
}

func TestAuditRecordTruncatesAction(t *testing.T) {
	sink := &testAuditRepo{}
	recorder := NewAuditRecorder(sink, zap.NewNop())

	detail := strings.Repeat("x", 400)
	recorder.Record(context.Background(), "acc-1", "role changed", detail, domain.AuditSuccess, "", "")

	action := sink.entries[0].Action
	if got := len([]rune(action)); got != domain.MaxAuditActionLen {
		t.Fatalf("expected action bounded at %d runes, got %d", domain.MaxAuditActionLen, got)
	}
	if !strings.HasPrefix(action, "role changed (") {
		t.Fatalf("detail folding lost, got %q", action)
	}
}

func TestAuditRecordSwallowsAppendFailure(t *testing.T) {
	sink := &testAuditRepo{appendErr: errors.New("database down")}
	recorder := NewAuditRecorder(sink, zap.NewNop())

	// Must not panic or propagate; the audited action already succeeded.
	recorder.Record(context.Background(), "acc-1", "login succeeded", "", domain.AuditSuccess, "", "")
}

func TestAuditRecordNilRecorder(t *testing.T) {
	var recorder *AuditRecorder
	recorder.Record(context.Background(), "acc-1", "noop", "", domain.AuditInfo, "", "")
}
