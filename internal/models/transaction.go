package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType says which side of the ledger an entry sits on.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Valid reports whether t is one of the two known entry types.
func (t EntryType) Valid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// Entry is one leg of a committed transaction. Amount is always
// strictly positive; the sign is carried by Type.
type Entry struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          EntryType       `json:"type"`
	AccountID     string          `json:"account_id"`
	AccountName   string          `json:"account_name,omitempty"`
	TransactionID string          `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Transaction is an immutable committed double-entry transaction with
// its full entry set.
type Transaction struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
	Entries     []Entry   `json:"entries"`
}
