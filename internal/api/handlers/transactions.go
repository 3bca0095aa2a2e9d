// Package handlers contains the HTTP handlers for the transactions API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerline/internal/api/middleware"
	"github.com/dvloznov/ledgerline/internal/domain"
	infra "github.com/dvloznov/ledgerline/internal/infra/bigquery"
)

// TransactionsHandler handles transaction CRUD and summary endpoints.
type TransactionsHandler struct {
	repo infra.TransactionRepository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo infra.TransactionRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, log: log}
}

// createTransactionRequest is the manual-entry body.
type createTransactionRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transactions, err := h.repo.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if req.Description == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Description is required")
		return
	}
	if req.Type != string(domain.TypeIncome) && req.Type != string(domain.TypeExpense) {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be \"income\" or \"expense\"")
		return
	}
	if !domain.ValidCategory(req.Category) {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	date, err := civil.ParseDate(req.Date)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	tx := &domain.Transaction{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Category:    domain.Category(req.Category),
		Type:        domain.TransactionType(req.Type),
		Source:      "manual",
	}

	stored, err := h.repo.Insert(r.Context(), tx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Transaction created successfully",
		"transaction": stored,
	})
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request, id string) {
	tx, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, infra.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to get transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var upd domain.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if upd.Empty() {
		middleware.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if upd.Type != nil && *upd.Type != string(domain.TypeIncome) && *upd.Type != string(domain.TypeExpense) {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be \"income\" or \"expense\"")
		return
	}
	if upd.Category != nil && !domain.ValidCategory(*upd.Category) {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	tx, err := h.repo.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, infra.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Transaction updated successfully",
		"transaction": tx,
	})
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, infra.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Transaction deleted successfully",
	})
}

// GetSummary handles GET /api/summary
func (h *TransactionsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, domain.Summarize(transactions))
}
