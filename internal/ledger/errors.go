package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifies one case of the ledger failure taxonomy. The set is
// closed; callers switch on the code instead of matching error types.
type Code string

const (
	// CodeValidation covers unbalanced entry sets, non-positive
	// amounts, unknown entry types and empty entry lists. Not
	// retryable without changing the input.
	CodeValidation Code = "validation_error"
	// CodeNotFound means a referenced account does not exist.
	CodeNotFound Code = "not_found"
	// CodeInsufficientFunds means a resulting balance would go
	// negative.
	CodeInsufficientFunds Code = "insufficient_funds"
	// CodeInProgress means the same idempotency token is currently
	// mid-flight in another attempt. Retryable after a delay.
	CodeInProgress Code = "idempotency_in_progress"
	// CodeConflict is a storage serialization failure or an
	// idempotency-token race. Retryable immediately.
	CodeConflict Code = "concurrency_conflict"
	// CodeStorage is any other storage failure. Retryable with
	// backoff.
	CodeStorage Code = "storage_error"
)

// Error is the single error type produced by the ledger core. The
// insufficient-funds case additionally carries the account, its
// pre-transaction balance and the attempted net delta.
type Error struct {
	Code      Code
	Message   string
	AccountID string
	Balance   decimal.Decimal
	Attempted decimal.Decimal
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the taxonomy code from err, or CodeStorage when err
// did not originate in the ledger core.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return CodeStorage
}

// IsRetryable reports whether a retry of the same payload could
// succeed without the client changing anything.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeInProgress, CodeConflict, CodeStorage:
		return true
	}
	return false
}

func validationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(accountID string) *Error {
	return &Error{
		Code:      CodeNotFound,
		Message:   fmt.Sprintf("account %s not found", accountID),
		AccountID: accountID,
	}
}

func insufficientFundsError(accountID string, balance, attempted decimal.Decimal) *Error {
	return &Error{
		Code:      CodeInsufficientFunds,
		Message:   fmt.Sprintf("insufficient funds on account %s", accountID),
		AccountID: accountID,
		Balance:   balance,
		Attempted: attempted,
	}
}

func inProgressError(key string) *Error {
	return &Error{
		Code:    CodeInProgress,
		Message: fmt.Sprintf("transaction with idempotency key %q is currently in progress, retry later", key),
	}
}

func conflictError(msg string, err error) *Error {
	return &Error{Code: CodeConflict, Message: msg, Err: err}
}

func storageError(msg string, err error) *Error {
	return &Error{Code: CodeStorage, Message: msg, Err: err}
}
