package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage"
)

// Service is the double-entry commit orchestrator. It owns no state of
// its own; all coordination between concurrent commits is delegated to
// the storage transaction's isolation and row locks.
type Service struct {
	store storage.LedgerStore
	log   zerolog.Logger
}

// NewService creates a Service over any LedgerStore implementation.
func NewService(store storage.LedgerStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// CreateTransaction runs one commit attempt for a proposed transaction.
//
// The whole attempt executes inside a single serializable storage
// transaction: idempotency guard, balance validation, account locking
// in canonical order, balance mutation, and persistence of the
// transaction, its entries and the idempotency result. Any failure
// rolls the entire scope back, including the idempotency reservation,
// so the client may retry the same token.
//
// An empty idempotencyKey skips the guard entirely. A replayed token
// returns the previously committed transaction without re-running any
// business logic.
func (s *Service) CreateTransaction(ctx context.Context, req models.TransactionRequest, idempotencyKey string) (*models.Transaction, error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, storageError("begin transaction", err)
	}
	// Rollback is a no-op once Commit succeeded, and is also how a
	// replay releases its locks without writing anything.
	defer scope.Rollback()

	// 1. Idempotency guard under an exclusive row lock.
	if idempotencyKey != "" {
		record, err := scope.GetIdempotencyKeyForUpdate(ctx, idempotencyKey)
		switch {
		case err == nil && record.Result != nil:
			s.log.Info().Str("idempotency_key", idempotencyKey).
				Str("transaction_id", record.Result.ID).
				Msg("idempotency hit, replaying cached transaction")
			return record.Result, nil
		case err == nil:
			// Reserved but never completed: a prior attempt is
			// mid-flight or crashed before committing.
			return nil, inProgressError(idempotencyKey)
		case errors.Is(err, storage.ErrNotFound):
			if err := scope.InsertIdempotencyKey(ctx, idempotencyKey); err != nil {
				return nil, s.classify("reserve idempotency key", err)
			}
		default:
			return nil, s.classify("read idempotency key", err)
		}
	}

	// 2. Validate the entry set before taking any account lock.
	if err := validateEntries(req.Entries); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:          uuid.New().String(),
		Description: req.Description,
		Reference:   req.Reference,
		CreatedAt:   time.Now().UTC(),
	}

	// 3. Lock accounts in canonical order and apply net deltas.
	accounts, err := s.applyEntries(ctx, scope, req.Entries)
	if err != nil {
		return nil, err
	}

	for _, e := range req.Entries {
		tx.Entries = append(tx.Entries, models.Entry{
			ID:            uuid.New().String(),
			Amount:        e.Amount,
			Type:          e.Type,
			AccountID:     e.AccountID,
			AccountName:   accounts[e.AccountID].Name,
			TransactionID: tx.ID,
			CreatedAt:     tx.CreatedAt,
		})
	}

	// 4. Persist: one write for the transaction row, one batched write
	// for the entries. No implicit cascades.
	if err := scope.InsertTransaction(ctx, tx); err != nil {
		return nil, s.classify("insert transaction", err)
	}
	if err := scope.InsertEntries(ctx, tx.Entries); err != nil {
		return nil, s.classify("insert entries", err)
	}

	// 5. Attach the result to the reservation made in step 1.
	if idempotencyKey != "" {
		if err := scope.SetIdempotencyResult(ctx, idempotencyKey, tx); err != nil {
			return nil, s.classify("store idempotency result", err)
		}
	}

	if err := scope.Commit(); err != nil {
		return nil, s.classify("commit transaction", err)
	}

	s.log.Info().Str("transaction_id", tx.ID).
		Str("reference", tx.Reference).
		Int("entries", len(tx.Entries)).
		Msg("transaction committed")

	return tx, nil
}

// applyEntries locks every distinct account referenced by the entry
// set, verifies the resulting balances and writes them. Locks are
// acquired in ascending account-id order so that two commits over an
// overlapping account set always wait on each other in the same order
// and can never form a cycle. An account appearing in several entries
// is locked once and written once with its accumulated net delta.
func (s *Service) applyEntries(ctx context.Context, scope storage.TxScope, entries []models.EntryRequest) (map[string]*models.Account, error) {
	deltas := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(entries))

	for _, e := range entries {
		delta, seen := deltas[e.AccountID]
		if !seen {
			delta = decimal.Zero
			order = append(order, e.AccountID)
		}
		// Invariant 4: a debit raises the balance, a credit lowers it.
		if e.Type == models.EntryTypeDebit {
			delta = delta.Add(e.Amount)
		} else {
			delta = delta.Sub(e.Amount)
		}
		deltas[e.AccountID] = delta
	}

	sort.Strings(order)

	accounts := make(map[string]*models.Account, len(order))

	for _, id := range order {
		account, err := scope.GetAccountForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, notFoundError(id)
			}
			return nil, s.classify("lock account", err)
		}

		newBalance := account.Balance.Add(deltas[id])
		if newBalance.IsNegative() {
			return nil, insufficientFundsError(id, account.Balance, deltas[id])
		}

		if err := scope.UpdateAccountBalance(ctx, id, newBalance); err != nil {
			return nil, s.classify("update balance", err)
		}

		account.Balance = newBalance
		accounts[id] = account
	}

	return accounts, nil
}

// classify is the single point that maps raw storage errors onto the
// ledger taxonomy. Serialization failures and unique-constraint races
// both become retryable conflicts; everything else is a storage error.
func (s *Service) classify(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrSerialization):
		s.log.Warn().Err(err).Str("op", op).Msg("serialization failure, transaction rolled back")
		return conflictError("transaction failed due to concurrent modification, please retry", err)
	case errors.Is(err, storage.ErrDuplicate):
		s.log.Warn().Err(err).Str("op", op).Msg("unique constraint race, transaction rolled back")
		return conflictError("transaction was already processed or is being processed", err)
	default:
		s.log.Error().Err(err).Str("op", op).Msg("storage failure, transaction rolled back")
		return storageError(op, err)
	}
}

// CreateAccount inserts a new account with a zero balance.
func (s *Service) CreateAccount(ctx context.Context, name string) (*models.Account, error) {
	if name == "" {
		return nil, validationError("account name must not be empty")
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, conflictError("account with name '"+name+"' already exists", err)
		}
		return nil, storageError("create account", err)
	}

	return account, nil
}

// ListAccounts returns every account with its current balance.
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, storageError("list accounts", err)
	}
	return accounts, nil
}

// ListTransactions returns committed transactions, newest first, with
// entries and resolved account names.
func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, storageError("list transactions", err)
	}
	return txs, nil
}
