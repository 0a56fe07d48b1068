package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/kafka"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// SubscriptionProducer publishes subscription change events to Kafka.
// Messages are keyed by user id so all events for one user land in the same
// partition and keep their order.
type SubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewSubscriptionProducer creates a new subscription event producer
func NewSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) *SubscriptionProducer {
	return &SubscriptionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionUpdated publishes a subscription change event
func (p *SubscriptionProducer) PublishSubscriptionUpdated(ctx context.Context, userID, email string, sub *domain.Subscription) error {
	event := kafka.NewSubscriptionEvent(userID, email, sub)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicSubscriptionUpdated,
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Errorw("Failed to publish subscription event", "error", err, "userID", userID)
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.log.Debugw("Subscription event published",
		"userID", userID, "partition", partition, "offset", offset)
	return nil
}

// Close closes the underlying producer
func (p *SubscriptionProducer) Close() error {
	return p.producer.Close()
}

// NoopProducer discards events. Used when Kafka is not configured and in
// tests.
type NoopProducer struct{}

// PublishSubscriptionUpdated discards the event
func (NoopProducer) PublishSubscriptionUpdated(ctx context.Context, userID, email string, sub *domain.Subscription) error {
	return nil
}
