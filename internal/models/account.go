package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a named ledger account. Balance is an exact decimal with
// scale 2 and is never allowed to go negative.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
