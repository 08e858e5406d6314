// Package handlers implements the HTTP API over the ledger, the magic box
// entry session and the backup pipeline.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/api/middleware"
	"github.com/dvloznov/money-mngr/internal/category"
	"github.com/dvloznov/money-mngr/internal/ledger"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	store   ledger.Store
	applier *ledger.Applier
	userID  string
	log     zerolog.Logger
}

// NewAccountsHandler creates an accounts handler.
func NewAccountsHandler(store ledger.Store, applier *ledger.Applier, userID string, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{store: store, applier: applier, userID: userID, log: log}
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context(), h.userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	type accountView struct {
		*ledger.Account
		Low bool `json:"low"`
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{Account: a, Low: a.Low()})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": views,
		"count":    len(views),
	})
}

// Create handles POST /api/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string          `json:"name"`
		TypeID         string          `json:"typeId"`
		GroupID        string          `json:"groupId"`
		OpeningBalance decimal.Decimal `json:"openingBalance"`
		ThresholdValue decimal.Decimal `json:"thresholdValue"`
		Color          string          `json:"color"`
		Icon           string          `json:"icon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	account := &ledger.Account{
		ID:             uuid.NewString(),
		UserID:         h.userID,
		Name:           req.Name,
		TypeID:         req.TypeID,
		GroupID:        req.GroupID,
		Balance:        req.OpeningBalance,
		OpeningBalance: req.OpeningBalance,
		ThresholdValue: req.ThresholdValue,
		Color:          req.Color,
		Icon:           req.Icon,
	}
	if err := h.store.SaveAccount(r.Context(), account); err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// Reconcile handles POST /api/accounts/reconcile
func (h *AccountsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.applier.Reconcile(r.Context(), h.userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Reconciliation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Reconciliation failed")
		return
	}
	if adjustments == nil {
		adjustments = []ledger.Adjustment{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"adjustments": adjustments,
		"count":       len(adjustments),
	})
}

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	store  ledger.Store
	userID string
	log    zerolog.Logger
}

// NewCategoriesHandler creates a categories handler.
func NewCategoriesHandler(store ledger.Store, userID string, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: store, userID: userID, log: log}
}

// List handles GET /api/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context(), h.userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// Create handles POST /api/categories
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Kind string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	kind, err := ledger.ParseKind(req.Kind)
	if err != nil || kind == ledger.KindTransfer {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be EXPENSE or INCOME")
		return
	}

	ctx := r.Context()
	existing, err := h.store.ListCategories(ctx, h.userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	c := category.New(h.userID, req.Name, kind, len(existing))
	if err := h.store.SaveCategory(ctx, c); err != nil {
		h.log.Error().Err(err).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, c)
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	store    ledger.Store
	applier  *ledger.Applier
	userID   string
	currency string
	log      zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler.
func NewTransactionsHandler(store ledger.Store, applier *ledger.Applier, userID, currency string, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, applier: applier, userID: userID, currency: currency, log: log}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.store.ListTransactions(r.Context(), h.userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*ledger.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// Create handles POST /api/transactions, the manual entry path.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date          *time.Time      `json:"date"`
		Amount        decimal.Decimal `json:"amount"`
		Kind          string          `json:"transactionType"`
		FromAccountID *string         `json:"fromAccountId"`
		ToAccountID   *string         `json:"toAccountId"`
		CategoryID    *string         `json:"categoryId"`
		Description   string          `json:"description"`
		CommitKey     string          `json:"commitKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := ledger.ParseKind(req.Kind)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown transaction type")
		return
	}

	tx := &ledger.Transaction{
		UserID:        h.userID,
		Amount:        req.Amount,
		Currency:      h.currency,
		Kind:          kind,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		Status:        ledger.StatusConfirmed,
		Source:        ledger.SourceManual,
		CommitKey:     req.CommitKey,
	}
	if req.Date != nil {
		tx.Date = *req.Date
	}

	committed, err := h.applier.Commit(r.Context(), tx)
	if err != nil {
		writeCommitError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, committed)
}

// Confirm handles POST /api/transactions/{id}/confirm
func (h *TransactionsHandler) Confirm(w http.ResponseWriter, r *http.Request, id string) {
	tx, err := h.applier.Confirm(r.Context(), id)
	if err != nil {
		h.log.Warn().Err(err).Str("transaction_id", id).Msg("Confirm rejected")
		middleware.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Reject handles POST /api/transactions/{id}/reject
func (h *TransactionsHandler) Reject(w http.ResponseWriter, r *http.Request, id string) {
	tx, err := h.applier.Reject(r.Context(), id)
	if err != nil {
		h.log.Warn().Err(err).Str("transaction_id", id).Msg("Reject rejected")
		middleware.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// writeCommitError maps applier failures onto HTTP status codes.
func writeCommitError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var invalidAmount *ledger.InvalidAmountError
	var duplicate *ledger.DuplicateCommitError

	switch {
	case errors.As(err, &invalidAmount):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &duplicate):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to commit transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to commit transaction")
	}
}
