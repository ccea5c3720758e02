package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Publisher is the enqueue side of the transaction queue.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish enqueues a transaction job. The idempotency key doubles as
// the message key so duplicate submissions of the same token land on
// the same partition, in order.
func (p *Publisher) Publish(ctx context.Context, job models.TransactionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.IdempotencyKey),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
