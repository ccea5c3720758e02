package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/memory"
)

type fakePublisher struct {
	jobs []models.TransactionJob
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, job models.TransactionJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestRouter(t *testing.T, publisher Publisher) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svc := ledger.NewService(store, zerolog.Nop())
	engine := gin.New()
	SetupRoutes(engine, NewHandler(svc, publisher))
	return engine, store
}

func seedAccount(t *testing.T, store *memory.Store, name, balance string) string {
	t.Helper()
	account := &models.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return account.ID
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func transactionBody(from, to, amount string) map[string]any {
	return map[string]any{
		"description": "invoice payment",
		"reference":   "INV-42",
		"entries": []map[string]any{
			{"accountId": from, "amount": amount, "type": "DEBIT"},
			{"accountId": to, "amount": amount, "type": "CREDIT"},
		},
	}
}

func TestCreateTransactionEndpoint(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions", transactionBody(cash, bank, "100.00"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
	assert.NotEmpty(t, tx.ID)
	assert.Len(t, tx.Entries, 2)
	assert.Equal(t, "Cash", tx.Entries[0].AccountName)
}

func TestCreateTransactionEndpoint_Unbalanced(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	body := map[string]any{
		"description": "broken",
		"reference":   "INV-43",
		"entries": []map[string]any{
			{"accountId": cash, "amount": "100.00", "type": "DEBIT"},
			{"accountId": bank, "amount": "50.00", "type": "CREDIT"},
		},
	}

	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(ledger.CodeValidation), resp["code"])
}

func TestCreateTransactionEndpoint_MissingFields(t *testing.T) {
	engine, _ := newTestRouter(t, nil)

	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions", map[string]any{"description": "no entries"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTransactionEndpoint_IdempotencyReplay(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	headers := map[string]string{"Idempotency-Key": "http-k1"}
	body := transactionBody(cash, bank, "100.00")

	first := doJSON(t, engine, http.MethodPost, "/ledger/transactions", body, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, engine, http.MethodPost, "/ledger/transactions", body, headers)
	require.Equal(t, http.StatusCreated, second.Code)

	var tx1, tx2 models.Transaction
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &tx1))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &tx2))
	assert.Equal(t, tx1.ID, tx2.ID)

	account, err := store.GetAccount(context.Background(), cash)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("1100.00")))
}

func TestCreateTransactionEndpoint_UnknownAccount(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")

	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions", transactionBody(cash, "nope", "100.00"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnqueueTransactionEndpoint(t *testing.T) {
	publisher := &fakePublisher{}
	engine, store := newTestRouter(t, publisher)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	headers := map[string]string{"Idempotency-Key": "async-k1"}
	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions/async", transactionBody(cash, bank, "25.00"), headers)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, publisher.jobs, 1)
	assert.Equal(t, "async-k1", publisher.jobs[0].IdempotencyKey)
	assert.Equal(t, "INV-42", publisher.jobs[0].Request.Reference)
}

func TestEnqueueTransactionEndpoint_NoQueue(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	w := doJSON(t, engine, http.MethodPost, "/ledger/transactions/async", transactionBody(cash, bank, "25.00"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAccountEndpoints(t *testing.T) {
	engine, _ := newTestRouter(t, nil)

	w := doJSON(t, engine, http.MethodPost, "/ledger/accounts", map[string]any{"name": "Cash"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate name conflicts.
	w = doJSON(t, engine, http.MethodPost, "/ledger/accounts", map[string]any{"name": "Cash"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/ledger/accounts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var accounts []models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "Cash", accounts[0].Name)
}

func TestListTransactionsEndpoint(t *testing.T) {
	engine, store := newTestRouter(t, nil)
	cash := seedAccount(t, store, "Cash", "1000.00")
	bank := seedAccount(t, store, "Bank", "1000.00")

	require.Equal(t, http.StatusCreated,
		doJSON(t, engine, http.MethodPost, "/ledger/transactions", transactionBody(cash, bank, "10.00"), nil).Code)

	w := doJSON(t, engine, http.MethodGet, "/ledger/transactions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Len(t, txs[0].Entries, 2)
}

func TestHealthEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t, nil)
	w := doJSON(t, engine, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
