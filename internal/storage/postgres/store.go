package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage"
)

// Postgres error codes the ledger cares about.
const (
	codeSerializationFailure = "40001"
	codeUniqueViolation      = "23505"
)

// Store implements storage.LedgerStore on top of Postgres using plain
// database/sql. Row locks are taken with SELECT ... FOR UPDATE and the
// commit protocol runs at serializable isolation.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapError translates driver errors into the storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeSerializationFailure:
			return fmt.Errorf("%w: %s", storage.ErrSerialization, pqErr.Message)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, pqErr.Message)
		}
	}
	return err
}

func (s *Store) Begin(ctx context.Context) (storage.TxScope, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &txScope{tx: tx}, nil
}

// txScope wraps one sql.Tx. All locks it takes are released by the
// driver on Commit or Rollback.
type txScope struct {
	tx   *sql.Tx
	done bool
}

func (t *txScope) GetIdempotencyKeyForUpdate(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	const query = `SELECT key, response, created_at FROM idempotency_keys WHERE key = $1 FOR UPDATE`

	var (
		record   models.IdempotencyRecord
		response []byte
	)
	err := t.tx.QueryRowContext(ctx, query, key).Scan(&record.Key, &response, &record.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	if response != nil {
		var result models.Transaction
		if err := json.Unmarshal(response, &result); err != nil {
			return nil, fmt.Errorf("decode cached idempotency result: %w", err)
		}
		record.Result = &result
	}

	return &record, nil
}

func (t *txScope) InsertIdempotencyKey(ctx context.Context, key string) error {
	const query = `INSERT INTO idempotency_keys (key, created_at) VALUES ($1, $2)`

	_, err := t.tx.ExecContext(ctx, query, key, time.Now().UTC())
	return mapError(err)
}

func (t *txScope) SetIdempotencyResult(ctx context.Context, key string, result *models.Transaction) error {
	const query = `UPDATE idempotency_keys SET response = $2 WHERE key = $1`

	response, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode idempotency result: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, query, key, response)
	return mapError(err)
}

func (t *txScope) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT id, name, balance, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE`

	var account models.Account
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (t *txScope) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	_, err := t.tx.ExecContext(ctx, query, id, balance, time.Now().UTC())
	return mapError(err)
}

func (t *txScope) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	const query = `INSERT INTO transactions (id, description, reference, created_at) VALUES ($1, $2, $3, $4)`

	_, err := t.tx.ExecContext(ctx, query, tx.ID, tx.Description, tx.Reference, tx.CreatedAt)
	return mapError(err)
}

// InsertEntries writes all entry rows in a single multi-row INSERT.
func (t *txScope) InsertEntries(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO entries (id, amount, type, account_id, transaction_id, created_at) VALUES `)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, e.ID, e.Amount, string(e.Type), e.AccountID, e.TransactionID, e.CreatedAt)
	}

	_, err := t.tx.ExecContext(ctx, sb.String(), args...)
	return mapError(err)
}

func (t *txScope) Commit() error {
	t.done = true
	return mapError(t.tx.Commit())
}

func (t *txScope) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	const query = `INSERT INTO accounts (id, name, balance, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Balance, account.CreatedAt, account.UpdatedAt)
	return mapError(err)
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT id, name, balance, created_at, updated_at FROM accounts WHERE id = $1`

	var account models.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT id, name, balance, created_at, updated_at FROM accounts ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `
		SELECT t.id, t.description, t.reference, t.created_at,
		       e.id, e.amount, e.type, e.account_id, a.name, e.created_at
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.id
		JOIN accounts a ON a.id = e.account_id
		ORDER BY t.created_at DESC, e.created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var (
		txs   []models.Transaction
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			tx    models.Transaction
			entry models.Entry
		)
		err := rows.Scan(
			&tx.ID, &tx.Description, &tx.Reference, &tx.CreatedAt,
			&entry.ID, &entry.Amount, &entry.Type, &entry.AccountID, &entry.AccountName, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.TransactionID = tx.ID

		i, seen := index[tx.ID]
		if !seen {
			i = len(txs)
			index[tx.ID] = i
			txs = append(txs, tx)
		}
		txs[i].Entries = append(txs[i].Entries, entry)
	}
	return txs, rows.Err()
}

var _ storage.LedgerStore = (*Store)(nil)
