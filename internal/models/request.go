package models

import "github.com/shopspring/decimal"

// EntryRequest is one proposed debit or credit in an incoming
// transaction request.
type EntryRequest struct {
	AccountID string          `json:"accountId" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Type      EntryType       `json:"type" binding:"required"`
}

// TransactionRequest is the client-facing shape of a proposed
// transaction, before validation.
type TransactionRequest struct {
	Description string         `json:"description" binding:"required"`
	Reference   string         `json:"reference" binding:"required"`
	Entries     []EntryRequest `json:"entries" binding:"required,dive"`
}

// TransactionJob is the payload carried by the queue for asynchronous
// processing. Delivery is at-least-once; the idempotency key is what
// makes duplicate deliveries converge on a single stored transaction.
type TransactionJob struct {
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	Request        TransactionRequest `json:"request"`
}
