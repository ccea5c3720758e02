package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

func entry(accountID string, amount string, typ models.EntryType) models.EntryRequest {
	return models.EntryRequest{
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Type:      typ,
	}
}

func TestValidateEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.EntryRequest
		wantErr bool
	}{
		{
			name: "balanced pair",
			entries: []models.EntryRequest{
				entry("a", "100.00", models.EntryTypeDebit),
				entry("b", "100.00", models.EntryTypeCredit),
			},
		},
		{
			name: "balanced split across three accounts",
			entries: []models.EntryRequest{
				entry("a", "100.00", models.EntryTypeDebit),
				entry("b", "60.00", models.EntryTypeCredit),
				entry("c", "40.00", models.EntryTypeCredit),
			},
		},
		{
			name:    "empty entry list",
			entries: nil,
			wantErr: true,
		},
		{
			name: "single entry cannot balance",
			entries: []models.EntryRequest{
				entry("a", "100.00", models.EntryTypeDebit),
			},
			wantErr: true,
		},
		{
			name: "unbalanced",
			entries: []models.EntryRequest{
				entry("a", "100.00", models.EntryTypeDebit),
				entry("b", "50.00", models.EntryTypeCredit),
			},
			wantErr: true,
		},
		{
			name: "off by a cent",
			entries: []models.EntryRequest{
				entry("a", "100.00", models.EntryTypeDebit),
				entry("b", "99.99", models.EntryTypeCredit),
			},
			wantErr: true,
		},
		{
			name: "zero amount",
			entries: []models.EntryRequest{
				entry("a", "0.00", models.EntryTypeDebit),
				entry("b", "0.00", models.EntryTypeCredit),
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			entries: []models.EntryRequest{
				entry("a", "-10.00", models.EntryTypeDebit),
				entry("b", "-10.00", models.EntryTypeCredit),
			},
			wantErr: true,
		},
		{
			name: "unknown entry type",
			entries: []models.EntryRequest{
				entry("a", "10.00", "TRANSFER"),
				entry("b", "10.00", models.EntryTypeCredit),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEntries(tt.entries)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeValidation, CodeOf(err))
				assert.False(t, IsRetryable(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(conflictError("conflict", nil)))
	assert.True(t, IsRetryable(inProgressError("k1")))
	assert.True(t, IsRetryable(storageError("boom", nil)))
	assert.False(t, IsRetryable(notFoundError("a")))
	assert.False(t, IsRetryable(insufficientFundsError("a", decimal.Zero, decimal.Zero)))
	assert.False(t, IsRetryable(validationError("bad")))
}
