package port

import (
	"context"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// EventPublisher emits security events for downstream consumers. Publishing
// is best-effort; callers log and continue on error.
type EventPublisher interface {
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishRoleChanged(ctx context.Context, event domain.RoleChangedEvent) error
}
