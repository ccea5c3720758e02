package models

import "time"

// IdempotencyRecord reserves a client-supplied token. Result stays nil
// while the first attempt is in flight and is filled in by the same
// storage transaction that commits the resulting Transaction.
type IdempotencyRecord struct {
	Key       string       `json:"key"`
	Result    *Transaction `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
