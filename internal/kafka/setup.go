package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// EnsureTopics checks that the topics the service uses exist and creates the
// missing ones. Safe to call on every startup.
func EnsureTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := map[string]kafkaGo.TopicConfig{
		TopicSubscriptionUpdated: {
			Topic:             TopicSubscriptionUpdated,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}

	if _, portStr, err := net.SplitHostPort(brokers[0]); err != nil {
		return fmt.Errorf("invalid broker address %s: %w", brokers[0], err)
	} else if _, err := strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid broker port %s: %w", portStr, err)
	}

	connCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := kafkaGo.DialContext(connCtx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller lookup failed: %w", err)
	}

	controllerConn, err := kafkaGo.DialContext(connCtx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka controller connection failed: %w", err)
	}
	defer controllerConn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existing := make(map[string]bool)
	for _, p := range partitions {
		existing[p.Topic] = true
	}

	var toCreate []kafkaGo.TopicConfig
	for name, cfg := range requiredTopics {
		if existing[name] {
			log.Debugw("Kafka topic already exists", "topic", name)
			continue
		}
		toCreate = append(toCreate, cfg)
	}

	if len(toCreate) == 0 {
		return nil
	}

	if err := controllerConn.CreateTopics(toCreate...); err != nil {
		return fmt.Errorf("kafka topic creation failed: %w", err)
	}

	for _, cfg := range toCreate {
		log.Infow("Kafka topic created", "topic", cfg.Topic, "partitions", cfg.NumPartitions)
	}
	return nil
}
