package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// validateEntries checks a proposed entry set without touching storage.
// Double-entry requires at least two entries whose debit and credit
// sums are exactly equal; amounts are compared as exact decimals, never
// with an epsilon.
func validateEntries(entries []models.EntryRequest) error {
	if len(entries) == 0 {
		return validationError("transaction must contain at least one entry")
	}
	if len(entries) < 2 {
		return validationError("a single entry cannot balance, at least one debit and one credit are required")
	}

	debits := decimal.Zero
	credits := decimal.Zero

	for _, e := range entries {
		if !e.Type.Valid() {
			return validationError("unknown entry type %q", e.Type)
		}
		if e.Amount.Sign() <= 0 {
			return validationError("entry amount must be positive, got %s for account %s", e.Amount, e.AccountID)
		}

		switch e.Type {
		case models.EntryTypeDebit:
			debits = debits.Add(e.Amount)
		case models.EntryTypeCredit:
			credits = credits.Add(e.Amount)
		}
	}

	if !debits.Equal(credits) {
		return validationError("debits (%s) do not equal credits (%s), double-entry requires a balanced transaction", debits, credits)
	}

	return nil
}
