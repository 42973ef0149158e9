package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// KafkaPublisher writes completed-transaction events to a Kafka topic,
// keyed on the transaction id so all events for one transaction land on the
// same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a publisher for the given broker and topic.
func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishCompleted(ctx context.Context, tx *entity.Transaction) error {
	b, err := json.Marshal(newCompletedEvent(tx))
	if err != nil {
		return fmt.Errorf("kafka: encode event for %q: %w", tx.TransactionID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.TransactionID),
		Value: b,
	})
	if err != nil {
		return fmt.Errorf("kafka: publish event for %q: %w", tx.TransactionID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
