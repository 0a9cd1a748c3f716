package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

const (
	topicAccountLocked   = "account.locked"
	topicPasswordChanged = "account.password_changed"
	topicRoleChanged     = "account.role_changed"
)

// EventPublisher publishes account security events to Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventPublisher creates an event publisher backed by the given producer.
func NewEventPublisher(producer *Producer, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		logger:   logger,
	}
}

type eventEnvelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Payload   interface{} `json:"payload"`
}

func (ep *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	return ep.publish(ctx, topicAccountLocked, event.AccountID, event)
}

func (ep *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return ep.publish(ctx, topicPasswordChanged, event.AccountID, event)
}

func (ep *EventPublisher) PublishRoleChanged(ctx context.Context, event domain.RoleChangedEvent) error {
	return ep.publish(ctx, topicRoleChanged, event.AccountID, event)
}

func (ep *EventPublisher) publish(ctx context.Context, eventType, accountID string, payload interface{}) error {
	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
		Payload:   payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	message := &sarama.ProducerMessage{
		Topic: ep.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(accountID),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case ep.producer.Producer().Input() <- message:
		ep.logger.Debug("Event queued",
			zap.String("event_type", eventType),
			zap.String("event_id", envelope.EventID),
		)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue event %s: %w", eventType, ctx.Err())
	}
}
