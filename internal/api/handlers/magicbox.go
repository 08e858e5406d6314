package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/money-mngr/internal/api/middleware"
	"github.com/dvloznov/money-mngr/internal/category"
	"github.com/dvloznov/money-mngr/internal/ledger"
	"github.com/dvloznov/money-mngr/internal/magicbox"
)

// MagicBoxHandler exposes the paste-to-ledger entry session over HTTP. It
// owns the session: the commit function it installs resolves the target
// account, materializes a suggested category if needed and hands the built
// transaction to the applier.
type MagicBoxHandler struct {
	orch     *magicbox.Orchestrator
	session  *magicbox.Session
	store    ledger.Store
	applier  *ledger.Applier
	userID   string
	currency string
	log      zerolog.Logger
}

// NewMagicBoxHandler creates the handler and its session.
func NewMagicBoxHandler(orch *magicbox.Orchestrator, store ledger.Store, applier *ledger.Applier, userID, currency string, log zerolog.Logger, opts ...magicbox.SessionOption) *MagicBoxHandler {
	h := &MagicBoxHandler{
		orch:     orch,
		store:    store,
		applier:  applier,
		userID:   userID,
		currency: currency,
		log:      log,
	}
	h.session = magicbox.NewSession(h.commitDraft, log, opts...)
	return h
}

// Session exposes the underlying session for wiring and tests.
func (h *MagicBoxHandler) Session() *magicbox.Session {
	return h.session
}

type parseRequest struct {
	Text      string `json:"text"`
	AccountID string `json:"accountId,omitempty"`
}

// Parse handles POST /api/magicbox/parse, the free local heuristic pass.
// Unparseable text is an empty result, not an error; the user just keeps
// typing a manual entry.
func (h *MagicBoxHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft := h.orch.ParseLocally(req.Text)
	if draft == nil {
		h.session.SetDraft(nil)
		h.writeStatus(w, http.StatusOK)
		return
	}

	h.installDraft(r.Context(), draft, req.AccountID)
	h.writeStatus(w, http.StatusOK)
}

// Suggest handles POST /api/magicbox/suggest, the explicit oracle trigger.
func (h *MagicBoxHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.orch.ParseWithOracle(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, magicbox.ErrSuggestInFlight) {
			middleware.WriteError(w, http.StatusConflict, "A suggestion is already in flight")
			return
		}
		var extraction *magicbox.ExtractionError
		if errors.As(err, &extraction) {
			middleware.WriteError(w, http.StatusBadGateway, extraction.Error())
			return
		}
		h.log.Error().Err(err).Msg("Suggestion failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Suggestion failed")
		return
	}

	h.installDraft(r.Context(), draft, req.AccountID)
	h.writeStatus(w, http.StatusOK)
}

// Hold handles POST /api/magicbox/hold
func (h *MagicBoxHandler) Hold(w http.ResponseWriter, r *http.Request) {
	if !h.session.Hold() {
		middleware.WriteError(w, http.StatusConflict, "No countdown is running")
		return
	}
	h.writeStatus(w, http.StatusOK)
}

// Approve handles POST /api/magicbox/approve
func (h *MagicBoxHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Approve(r.Context()); err != nil {
		if errors.Is(err, magicbox.ErrNoDraft) {
			middleware.WriteError(w, http.StatusConflict, "No draft to approve")
			return
		}
		writeCommitError(w, h.log, err)
		return
	}
	h.writeStatus(w, http.StatusOK)
}

// Reset handles POST /api/magicbox/reset
func (h *MagicBoxHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.writeStatus(w, http.StatusOK)
}

// Status handles GET /api/magicbox
func (h *MagicBoxHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, http.StatusOK)
}

// installDraft attaches account and category resolution to a fresh draft
// and installs it in the session, replacing whatever came before.
func (h *MagicBoxHandler) installDraft(ctx context.Context, draft *magicbox.Draft, accountID string) {
	if accountID != "" {
		draft.AccountID = accountID
	}

	if draft.CategoryHint != "" {
		existing, err := h.store.ListCategories(ctx, h.userID)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list categories for resolution")
		} else {
			res := category.Resolve(draft.Kind, draft.CategoryHint, existing)
			draft.CategoryID = res.MatchedID
			draft.CategorySuggestion = res.Suggestion
		}
	}

	h.session.SetDraft(draft)
}

type draftView struct {
	Amount             string `json:"amount"`
	Kind               string `json:"transactionType"`
	Bank               string `json:"bankName"`
	Merchant           string `json:"merchant,omitempty"`
	AccountLast4       string `json:"accountLast4,omitempty"`
	Confidence         int    `json:"confidence"`
	Provenance         string `json:"provenance"`
	CategoryID         string `json:"categoryId,omitempty"`
	CategorySuggestion string `json:"categorySuggestion,omitempty"`
	AccountID          string `json:"accountId,omitempty"`
}

func (h *MagicBoxHandler) writeStatus(w http.ResponseWriter, status int) {
	resp := map[string]interface{}{
		"state":              string(h.session.State()),
		"countdownRemaining": h.session.CountdownRemaining(),
	}
	if d := h.session.Draft(); d != nil {
		resp["draft"] = draftView{
			Amount:             d.Amount.String(),
			Kind:               string(d.Kind),
			Bank:               d.Bank,
			Merchant:           d.Merchant,
			AccountLast4:       d.AccountLast4,
			Confidence:         d.Confidence,
			Provenance:         string(d.Provenance),
			CategoryID:         d.CategoryID,
			CategorySuggestion: d.CategorySuggestion,
			AccountID:          d.AccountID,
		}
	}
	middleware.WriteJSON(w, status, resp)
}

// commitDraft is the session's commit function: it turns a finalized draft
// into a ledger transaction and applies it.
func (h *MagicBoxHandler) commitDraft(ctx context.Context, d *magicbox.Draft) error {
	account, err := h.resolveAccount(ctx, d)
	if err != nil {
		return err
	}

	categoryID := d.CategoryID
	if categoryID == "" && d.CategorySuggestion != "" {
		existing, err := h.store.ListCategories(ctx, h.userID)
		if err != nil {
			return err
		}
		c := category.New(h.userID, d.CategorySuggestion, d.Kind, len(existing))
		if err := h.store.SaveCategory(ctx, c); err != nil {
			return err
		}
		categoryID = c.ID
		h.log.Info().Str("category", c.Name).Msg("Category created from suggestion")
	}

	tx := &ledger.Transaction{
		UserID:      h.userID,
		Amount:      d.Amount,
		Currency:    h.currency,
		Kind:        d.Kind,
		Description: describeDraft(d),
		Status:      ledger.StatusConfirmed,
		Source:      ledger.SourceMagic,
		CommitKey:   d.CommitKey,
	}
	if categoryID != "" {
		tx.CategoryID = &categoryID
	}
	switch d.Kind {
	case ledger.KindExpense:
		tx.FromAccountID = &account.ID
	case ledger.KindIncome:
		tx.ToAccountID = &account.ID
	}

	_, err = h.applier.Commit(ctx, tx)
	return err
}

// resolveAccount picks the account a draft settles against: the pinned one,
// else the account whose name carries the notification's last-4 digits,
// else the first account.
func (h *MagicBoxHandler) resolveAccount(ctx context.Context, d *magicbox.Draft) (*ledger.Account, error) {
	if d.AccountID != "" {
		account, err := h.store.GetAccount(ctx, d.AccountID)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	accounts, err := h.store.ListAccounts(ctx, h.userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.New("no accounts configured")
	}

	if d.AccountLast4 != "" {
		for _, a := range accounts {
			if strings.Contains(a.Name, d.AccountLast4) {
				return a, nil
			}
		}
	}
	return accounts[0], nil
}

func describeDraft(d *magicbox.Draft) string {
	if d.Merchant != "" {
		return d.Merchant
	}
	if d.Bank != "" {
		return d.Bank + " notification"
	}
	return "Magic box entry"
}
