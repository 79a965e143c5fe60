package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/offline"
)

type LedgerController struct {
	ledger LedgerService
}

func NewLedgerController(ledger LedgerService) *LedgerController {
	return &LedgerController{ledger: ledger}
}

// AddTransaction records a ledger entry and queues it for sync.
// POST /api/ledger
func (lc *LedgerController) AddTransaction(c *gin.Context) {
	var req offline.NewTransaction
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid transaction: "+err.Error())
		return
	}

	tx, err := lc.ledger.AddTransaction(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "add transaction")
		return
	}
	respondCreated(c, tx)
}

// ListTransactions returns entries newest first. With q it searches
// description and category instead.
// GET /api/ledger?limit=&q=
func (lc *LedgerController) ListTransactions(c *gin.Context) {
	var (
		rows []offline.TransactionView
		err  error
	)
	if query, ok := c.GetQuery("q"); ok && strings.TrimSpace(query) != "" {
		rows, err = lc.ledger.SearchTransactions(c.Request.Context(), query)
	} else {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		rows, err = lc.ledger.Transactions(c.Request.Context(), limit)
	}
	if err != nil {
		respondServiceError(c, err, "list transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows, "count": len(rows)})
}

// GetTransaction returns one entry.
// GET /api/ledger/:id
func (lc *LedgerController) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tx, err := lc.ledger.Transaction(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// UpdateTransaction changes the supplied fields of an entry.
// PATCH /api/ledger/:id
func (lc *LedgerController) UpdateTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req offline.TransactionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid update: "+err.Error())
		return
	}

	tx, err := lc.ledger.UpdateTransaction(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DeleteTransaction removes an entry locally and queues the remote delete
// if it was already synced.
// DELETE /api/ledger/:id
func (lc *LedgerController) DeleteTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := lc.ledger.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete transaction")
		return
	}
	respondSuccess(c, "transaction deleted")
}

// BalanceResponse is the ledger balance plus a completeness flag for the UI.
type BalanceResponse struct {
	offline.Balance
	Complete bool `json:"complete"`
}

// GetBalance returns income, expense and net over readable entries.
// GET /api/balance
func (lc *LedgerController) GetBalance(c *gin.Context) {
	balance, err := lc.ledger.Balance(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "balance")
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{Balance: balance, Complete: balance.Complete()})
}
