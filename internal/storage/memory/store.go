package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage"
)

// Store is an in-memory implementation of storage.LedgerStore, used by
// tests and local runs. Begin acquires the store lock and holds it
// until the scope commits or rolls back, which serializes scopes
// completely; one-writer-at-a-time trivially satisfies the serializable
// isolation the commit protocol asks for, and a concurrent Begin blocks
// exactly like a blocked row lock would. Non-transactional reads take
// the same lock, so they too wait for an open scope to finish.
type Store struct {
	// lock is a one-slot channel used as a mutex so waiters can give
	// up when their context is cancelled.
	lock         chan struct{}
	accounts     map[string]models.Account
	names        map[string]string // name -> account id
	transactions []models.Transaction
	idempotency  map[string]models.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		lock:        make(chan struct{}, 1),
		accounts:    make(map[string]models.Account),
		names:       make(map[string]string),
		idempotency: make(map[string]models.IdempotencyRecord),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.lock
}

func (s *Store) Begin(ctx context.Context) (storage.TxScope, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return &txScope{
		store:    s,
		balances: make(map[string]decimal.Decimal),
		reserved: make(map[string]bool),
		results:  make(map[string]*models.Transaction),
	}, nil
}

// txScope buffers every write and applies the whole set on Commit, so
// a rollback leaves the store untouched.
type txScope struct {
	store    *Store
	balances map[string]decimal.Decimal
	inserted []models.Transaction
	entries  []models.Entry
	reserved map[string]bool
	results  map[string]*models.Transaction
	done     bool
}

func (t *txScope) GetIdempotencyKeyForUpdate(_ context.Context, key string) (*models.IdempotencyRecord, error) {
	record, ok := t.store.idempotency[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := record
	if record.Result != nil {
		result := copyTransaction(*record.Result)
		out.Result = &result
	}
	return &out, nil
}

func (t *txScope) InsertIdempotencyKey(_ context.Context, key string) error {
	if _, ok := t.store.idempotency[key]; ok {
		return storage.ErrDuplicate
	}
	if t.reserved[key] {
		return storage.ErrDuplicate
	}
	t.reserved[key] = true
	return nil
}

func (t *txScope) SetIdempotencyResult(_ context.Context, key string, result *models.Transaction) error {
	tx := copyTransaction(*result)
	t.results[key] = &tx
	return nil
}

func (t *txScope) GetAccountForUpdate(_ context.Context, id string) (*models.Account, error) {
	account, ok := t.store.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if balance, ok := t.balances[id]; ok {
		account.Balance = balance
	}
	return &account, nil
}

func (t *txScope) UpdateAccountBalance(_ context.Context, id string, balance decimal.Decimal) error {
	if _, ok := t.store.accounts[id]; !ok {
		return storage.ErrNotFound
	}
	t.balances[id] = balance
	return nil
}

func (t *txScope) InsertTransaction(_ context.Context, tx *models.Transaction) error {
	t.inserted = append(t.inserted, copyTransaction(*tx))
	return nil
}

func (t *txScope) InsertEntries(_ context.Context, entries []models.Entry) error {
	t.entries = append(t.entries, entries...)
	return nil
}

func (t *txScope) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.store.release()

	now := time.Now().UTC()

	for id, balance := range t.balances {
		account := t.store.accounts[id]
		account.Balance = balance
		account.UpdatedAt = now
		t.store.accounts[id] = account
	}

	for i := range t.inserted {
		tx := t.inserted[i]
		// The entry set of the stored transaction comes solely from
		// the rows buffered by InsertEntries, mirroring how the row
		// store joins entries back onto transactions.
		tx.Entries = nil
		for _, e := range t.entries {
			if e.TransactionID == tx.ID {
				tx.Entries = append(tx.Entries, e)
			}
		}
		t.store.transactions = append(t.store.transactions, tx)
	}

	for key := range t.reserved {
		record := models.IdempotencyRecord{Key: key, CreatedAt: now}
		if result, ok := t.results[key]; ok {
			record.Result = result
		}
		t.store.idempotency[key] = record
	}

	return nil
}

func (t *txScope) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.release()
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if _, ok := s.names[account.Name]; ok {
		return storage.ErrDuplicate
	}
	if _, ok := s.accounts[account.ID]; ok {
		return storage.ErrDuplicate
	}

	s.accounts[account.ID] = *account
	s.names[account.Name] = account.ID
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// ListTransactions returns committed transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	out := make([]models.Transaction, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		out = append(out, copyTransaction(s.transactions[i]))
	}
	return out, nil
}

func copyTransaction(tx models.Transaction) models.Transaction {
	entries := make([]models.Entry, len(tx.Entries))
	copy(entries, tx.Entries)
	tx.Entries = entries
	return tx
}

var _ storage.LedgerStore = (*Store)(nil)
