// Package worker adapts at-least-once queue deliveries onto the ledger
// commit protocol.
package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Processor consumes transaction jobs and drives the commit
// orchestrator. Duplicate deliveries of the same job converge on the
// same stored transaction through the idempotency guard; a redelivery
// can therefore never double-apply balance changes.
type Processor struct {
	ledger *ledger.Service
	log    zerolog.Logger
}

func NewProcessor(svc *ledger.Service, log zerolog.Logger) *Processor {
	return &Processor{ledger: svc, log: log}
}

// Process handles one delivered job. Retryable failures (in-progress
// token, concurrency conflict, storage trouble) are returned so the
// queue redelivers; terminal domain failures (validation, unknown
// account, insufficient funds) are logged and acknowledged, since
// redelivering the same payload can only fail the same way.
func (p *Processor) Process(ctx context.Context, job models.TransactionJob) error {
	tx, err := p.ledger.CreateTransaction(ctx, job.Request, job.IdempotencyKey)
	if err != nil {
		if ledger.IsRetryable(err) {
			p.log.Warn().Err(err).
				Str("idempotency_key", job.IdempotencyKey).
				Str("code", string(ledger.CodeOf(err))).
				Msg("transaction job failed, will be retried")
			return err
		}

		p.log.Error().Err(err).
			Str("idempotency_key", job.IdempotencyKey).
			Str("code", string(ledger.CodeOf(err))).
			Msg("transaction job rejected permanently")
		return nil
	}

	p.log.Info().
		Str("transaction_id", tx.ID).
		Str("idempotency_key", job.IdempotencyKey).
		Msg("transaction job processed")
	return nil
}
