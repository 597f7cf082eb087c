package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits order-created events so downstream services (email,
// fulfillment) can react to completed purchases.
type KafkaPublisher struct {
	timeout time.Duration
	writer  *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{timeout: 5 * time.Second, writer: w}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	msg, err := buildOrderCreatedMessage(order)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// buildOrderCreatedMessage keys the message by shopper id so one shopper's
// order events stay ordered within a partition.
func buildOrderCreatedMessage(order *domain.Order) (kafka.Message, error) {
	payload := map[string]interface{}{
		"event_id":   uuid.New().String(),
		"order_id":   order.ID,
		"shopper_id": order.Shopper.ID,
		"items":      order.Items,
		"total":      order.Total,
		"created_at": order.CreatedAt,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(order.Shopper.ID),
		Value: payloadJSON,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.created")},
		},
	}, nil
}
