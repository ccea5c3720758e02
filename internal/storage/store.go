package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Sentinel errors returned by LedgerStore implementations. The ledger
// core classifies these into its own error taxonomy; nothing above the
// storage layer inspects driver-specific error codes.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate means a unique constraint was violated.
	ErrDuplicate = errors.New("storage: duplicate key")
	// ErrSerialization means the store aborted the transaction because
	// it could not be serialized against a concurrent one.
	ErrSerialization = errors.New("storage: serialization failure")
)

// TxScope is one atomic storage transaction opened at serializable
// isolation. Row locks taken through it are held until Commit or
// Rollback. Rollback after a successful Commit is a no-op, so callers
// can always defer it.
type TxScope interface {
	// GetIdempotencyKeyForUpdate reads the idempotency record under an
	// exclusive row lock, blocking concurrent readers of the same key.
	// Returns ErrNotFound when the token has never been seen.
	GetIdempotencyKeyForUpdate(ctx context.Context, key string) (*models.IdempotencyRecord, error)

	// InsertIdempotencyKey reserves a token with no result attached.
	// Returns ErrDuplicate if another transaction inserted it first.
	InsertIdempotencyKey(ctx context.Context, key string) error

	// SetIdempotencyResult attaches the committed transaction to a
	// previously reserved token.
	SetIdempotencyResult(ctx context.Context, key string, result *models.Transaction) error

	// GetAccountForUpdate reads an account under an exclusive row lock.
	// Returns ErrNotFound for an unknown account id.
	GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error)

	// UpdateAccountBalance writes a new balance for a locked account.
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error

	// InsertTransaction writes the transaction row.
	InsertTransaction(ctx context.Context, tx *models.Transaction) error

	// InsertEntries writes all entry rows in one batched statement.
	InsertEntries(ctx context.Context, entries []models.Entry) error

	// Commit makes every write visible atomically. May return
	// ErrSerialization or ErrDuplicate when the store detects a
	// conflict at commit time.
	Commit() error

	// Rollback discards every write and releases all locks.
	Rollback() error
}

// LedgerStore is the persistence boundary of the ledger. Begin opens
// the transactional scope the commit protocol runs in; the remaining
// methods are the non-transactional reads and the account insert.
type LedgerStore interface {
	Begin(ctx context.Context) (TxScope, error)

	// CreateAccount inserts a new account. Returns ErrDuplicate when
	// the name is already taken.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}
