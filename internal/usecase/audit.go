package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
)

// AuditRecorder appends entries to the audit trail. Recording is strictly
// best-effort: a failed write is logged and swallowed so the action being
// audited never fails because of it.
type AuditRecorder struct {
	audits port.AuditRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditRecorder constructs an AuditRecorder instance.
func NewAuditRecorder(audits port.AuditRepository, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{
		audits: audits,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (r *AuditRecorder) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

// Record appends one entry. accountID may be empty for anonymous actors.
// detail, when present, is folded into the action text before truncation.
func (r *AuditRecorder) Record(ctx context.Context, accountID, action, detail string, outcome domain.AuditOutcome, ip, userAgent string) {
	if r == nil || r.audits == nil {
		return
	}

	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		Action:    composeAction(action, detail),
		Outcome:   outcome,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: r.now().UTC(),
	}
	if accountID != "" {
		entry.AccountID = &accountID
	}

	if err := r.audits.Append(ctx, entry); err != nil {
		r.logger.Warn("audit append failed",
			zap.Error(err),
			zap.String("action", entry.Action),
		)
	}
}

// List returns audit entries for the admin viewer.
func (r *AuditRecorder) List(ctx context.Context, filter port.AuditFilter) ([]domain.AuditEntry, error) {
	entries, err := r.audits.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// composeAction folds the detail into the action text and bounds the result
// at domain.MaxAuditActionLen runes.
func composeAction(action, detail string) string {
	if detail != "" {
		action = fmt.Sprintf("%s (%s)", action, detail)
	}

	runes := []rune(action)
	if len(runes) > domain.MaxAuditActionLen {
		return string(runes[:domain.MaxAuditActionLen])
	}
	return action
}
