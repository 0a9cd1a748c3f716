package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()
	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg:      config.KafkaSettings{TopicPrefix: "restaurant"},
		done:     make(chan struct{}),
	}

	return NewEventPublisher(producer, zaptest.NewLogger(t)), asyncProducer
}

func TestPublishAccountLocked(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	until := time.Date(2026, 2, 2, 12, 15, 0, 0, time.UTC)
	event := domain.AccountLockedEvent{
		EventID:     "event-123",
		AccountID:   "acc-1",
		Username:    "diner",
		LockedUntil: until,
		IP:          "203.0.113.7",
	}

	if err := publisher.PublishAccountLocked(context.Background(), event); err != nil {
		t.Fatalf("PublishAccountLocked returned error: %v", err)
	}

	var message *sarama.ProducerMessage
	select {
	case message = <-asyncProducer.input:
	default:
		t.Fatal("expected a queued message")
	}

	if message.Topic != "restaurant.account.locked" {
		t.Fatalf("unexpected topic %q", message.Topic)
	}

	key, err := message.Key.Encode()
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	if string(key) != "acc-1" {
		t.Fatalf("expected account id as partition key, got %q", key)
	}

	value, err := message.Value.Encode()
	if err != nil {
		t.Fatalf("encode value: %v", err)
	}

	var envelope struct {
		EventID   string                    `json:"event_id"`
		EventType string                    `json:"event_type"`
		AccountID string                    `json:"account_id"`
		Version   string                    `json:"version"`
		Payload   domain.AccountLockedEvent `json:"payload"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if envelope.EventType != "account.locked" || envelope.AccountID != "acc-1" || envelope.Version != "1.0" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.Payload.Username != "diner" || !envelope.Payload.LockedUntil.Equal(until) {
		t.Fatalf("unexpected payload %+v", envelope.Payload)
	}
}

func TestPublishPasswordChangedTopic(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	event := domain.PasswordChangedEvent{
		EventID:   "event-456",
		AccountID: "acc-1",
		ChangedAt: time.Now().UTC(),
		Source:    "reset",
	}

	if err := publisher.PublishPasswordChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishPasswordChanged returned error: %v", err)
	}

	message := <-asyncProducer.input
	if message.Topic != "restaurant.account.password_changed" {
		t.Fatalf("unexpected topic %q", message.Topic)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	// Fill the buffer so the next send would block.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishRoleChanged(ctx, domain.RoleChangedEvent{AccountID: "acc-1"})
	if err == nil {
		t.Fatal("expected error once the context is cancelled")
	}
}

func TestTopicName(t *testing.T) {
	producer := &Producer{cfg: config.KafkaSettings{TopicPrefix: "restaurant"}}

	if got := producer.TopicName("account.locked"); got != "restaurant.account.locked" {
		t.Fatalf("unexpected topic %q", got)
	}
	if got := producer.TopicName("restaurant.account.locked"); got != "restaurant.account.locked" {
		t.Fatalf("expected idempotent prefixing, got %q", got)
	}

	bare := &Producer{cfg: config.KafkaSettings{}}
	if got := bare.TopicName("account.locked"); got != "account.locked" {
		t.Fatalf("expected raw topic without prefix, got %q", got)
	}
}
