package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// defaultRetryDelay is the pause between redelivery attempts of a job
// the handler would not accept.
const defaultRetryDelay = 5 * time.Second

// JobHandler processes one delivered transaction job. Returning an
// error tells the consumer the job must be delivered again.
type JobHandler func(ctx context.Context, job models.TransactionJob) error

// Consumer delivers transaction jobs to a handler at-least-once.
type Consumer struct {
	reader     *kafka.Reader
	log        zerolog.Logger
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		log:        log,
		retryDelay: defaultRetryDelay,
	}
}

// Run fetches and dispatches jobs until ctx is cancelled. A job the
// handler rejects is retried in place: group offsets are per-partition
// high-water marks, so committing any later message would silently
// acknowledge the failed one. The partition therefore stays blocked on
// the failing job until it goes through. An unparseable message is
// logged and committed, since redelivering it can never succeed.
func (c *Consumer) Run(ctx context.Context, handler JobHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var job models.TransactionJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			c.log.Error().Err(err).
				Int64("offset", msg.Offset).
				Msg("discarding malformed job payload")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := c.processWithRetry(ctx, handler, job); err != nil {
			// Only context cancellation gets here; the offset stays
			// uncommitted so the job comes back after restart.
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// processWithRetry invokes the handler until it accepts the job or the
// context is cancelled.
func (c *Consumer) processWithRetry(ctx context.Context, handler JobHandler, job models.TransactionJob) error {
	for {
		err := handler(ctx, job)
		if err == nil {
			return nil
		}

		c.log.Warn().Err(err).
			Str("idempotency_key", job.IdempotencyKey).
			Dur("retry_in", c.retryDelay).
			Msg("job failed, retrying in place")

		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
