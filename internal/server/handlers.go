package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Publisher is the enqueue side of the transaction queue, as the HTTP
// layer sees it.
type Publisher interface {
	Publish(ctx context.Context, job models.TransactionJob) error
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	ledger    *ledger.Service
	publisher Publisher
}

// NewHandler creates the HTTP handler set. publisher may be nil, in
// which case the async submission endpoint reports the queue as
// unavailable.
func NewHandler(svc *ledger.Service, publisher Publisher) *Handler {
	return &Handler{ledger: svc, publisher: publisher}
}

// CreateTransaction commits a transaction synchronously.
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	tx, err := h.ledger.CreateTransaction(c.Request.Context(), req, idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// EnqueueTransaction hands a transaction to the queue for asynchronous
// processing and acknowledges receipt.
func (h *Handler) EnqueueTransaction(c *gin.Context) {
	if h.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asynchronous processing is not configured"})
		return
	}

	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := models.TransactionJob{
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		Request:        req,
	}

	if err := h.publisher.Publish(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue transaction"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

type createAccountInput struct {
	Name string `json:"name" binding:"required"`
}

// CreateAccount creates a named account with a zero balance.
func (h *Handler) CreateAccount(c *gin.Context) {
	var input createAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.ledger.CreateAccount(c.Request.Context(), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// ListAccounts returns all accounts with their balances.
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.ledger.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if accounts == nil {
		accounts = make([]models.Account, 0)
	}
	c.JSON(http.StatusOK, accounts)
}

// ListTransactions returns committed transactions, newest first.
func (h *Handler) ListTransactions(c *gin.Context) {
	txs, err := h.ledger.ListTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if txs == nil {
		txs = make([]models.Transaction, 0)
	}
	c.JSON(http.StatusOK, txs)
}

// Health is the liveness endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps the ledger error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	code := ledger.CodeOf(err)

	status := http.StatusServiceUnavailable
	switch code {
	case ledger.CodeValidation, ledger.CodeInsufficientFunds:
		status = http.StatusBadRequest
	case ledger.CodeNotFound:
		status = http.StatusNotFound
	case ledger.CodeInProgress, ledger.CodeConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": string(code)})
}
