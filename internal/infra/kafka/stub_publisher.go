package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// StubPublisher logs events instead of sending them to Kafka. Used when
// the broker is disabled in configuration.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (s *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	s.logger.Info("Event (stub): account locked",
		zap.String("account_id", event.AccountID),
		zap.Time("locked_until", event.LockedUntil),
	)
	return nil
}

func (s *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	s.logger.Info("Event (stub): password changed",
		zap.String("account_id", event.AccountID),
	)
	return nil
}

func (s *StubPublisher) PublishRoleChanged(_ context.Context, event domain.RoleChangedEvent) error {
	s.logger.Info("Event (stub): role changed",
		zap.String("account_id", event.AccountID),
		zap.String("old_role", string(event.OldRole)),
		zap.String("new_role", string(event.NewRole)),
	)
	return nil
}
