package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
	"github.com/dvloznov/money-mngr/internal/magicbox"
	"github.com/dvloznov/money-mngr/internal/store/inmemory"
)

func newMagicBoxFixture(t *testing.T) (*MagicBoxHandler, *inmemory.Store) {
	t.Helper()
	s := inmemory.New()
	ctx := context.Background()

	if err := s.SaveAccount(ctx, &ledger.Account{
		ID:             "acc-1",
		UserID:         "local",
		Name:           "Bank XX1234",
		Balance:        decimal.NewFromInt(5000),
		OpeningBalance: decimal.NewFromInt(5000),
	}); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if err := s.SaveCategory(ctx, &ledger.Category{
		ID: "cat-food", UserID: "local", Name: "Food", Kind: ledger.KindExpense,
	}); err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}

	applier := ledger.NewApplier(s, zerolog.Nop())
	orch := magicbox.NewOrchestrator(magicbox.NewMatcher(), nil, zerolog.Nop())
	h := NewMagicBoxHandler(orch, s, applier, "local", "INR", zerolog.Nop(),
		magicbox.WithTick(5*time.Millisecond))
	return h, s
}

func postJSON(t *testing.T, fn http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func TestMagicBoxParseAndApprove(t *testing.T) {
	h, s := newMagicBoxFixture(t)

	w := postJSON(t, h.Parse, map[string]string{
		"text": "HDFC: Rs. 450.00 debited from A/c XX1234 at Swiggy",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Parse status = %d, want 200", w.Code)
	}

	var status struct {
		State string `json:"state"`
		Draft *struct {
			Kind       string `json:"transactionType"`
			CategoryID string `json:"categoryId"`
		} `json:"draft"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	// Heuristic drafts never count down.
	if status.State != string(magicbox.StateDrafted) {
		t.Fatalf("state = %q, want DRAFTED", status.State)
	}
	if status.Draft == nil || status.Draft.CategoryID != "cat-food" {
		t.Fatalf("draft = %+v, want resolved category cat-food", status.Draft)
	}

	w = postJSON(t, h.Approve, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Approve status = %d, want 200", w.Code)
	}

	ctx := context.Background()
	txs, err := s.ListTransactions(ctx, "local")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Source != ledger.SourceMagic {
		t.Errorf("Source = %q, want MAGIC", tx.Source)
	}
	if tx.FromAccountID == nil || *tx.FromAccountID != "acc-1" {
		t.Errorf("FromAccountID = %v, want acc-1", tx.FromAccountID)
	}

	account, _ := s.GetAccount(ctx, "acc-1")
	if !account.Balance.Equal(decimal.RequireFromString("4550.00")) {
		t.Errorf("balance = %s, want 4550.00", account.Balance)
	}
}

func TestMagicBoxApproveCreatesSuggestedCategory(t *testing.T) {
	h, s := newMagicBoxFixture(t)

	// "salary" hints a category that does not exist yet for INCOME.
	w := postJSON(t, h.Parse, map[string]string{
		"text": "Dear SBI customer, INR 9,000 salary credited to A/c XX1234",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Parse status = %d, want 200", w.Code)
	}

	w = postJSON(t, h.Approve, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Approve status = %d, want 200", w.Code)
	}

	ctx := context.Background()
	categories, _ := s.ListCategories(ctx, "local")
	var created *ledger.Category
	for _, c := range categories {
		if c.Name == "Salary" {
			created = c
		}
	}
	if created == nil {
		t.Fatal("Salary category should be created on commit")
	}
	if created.Kind != ledger.KindIncome {
		t.Errorf("created category kind = %q, want INCOME", created.Kind)
	}

	txs, _ := s.ListTransactions(ctx, "local")
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].CategoryID == nil || *txs[0].CategoryID != created.ID {
		t.Errorf("CategoryID = %v, want %s", txs[0].CategoryID, created.ID)
	}
}

func TestMagicBoxUnparseableTextClearsDraft(t *testing.T) {
	h, _ := newMagicBoxFixture(t)

	postJSON(t, h.Parse, map[string]string{
		"text": "HDFC: Rs. 450.00 debited from A/c XX1234",
	})
	w := postJSON(t, h.Parse, map[string]string{"text": "coffee with friends"})
	if w.Code != http.StatusOK {
		t.Fatalf("Parse status = %d, want 200", w.Code)
	}

	var status struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if status.State != string(magicbox.StateEmpty) {
		t.Errorf("state = %q, want EMPTY after unparseable text", status.State)
	}
}

func TestMagicBoxHoldWithoutCountdown(t *testing.T) {
	h, _ := newMagicBoxFixture(t)

	w := postJSON(t, h.Hold, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Hold status = %d, want 409 with no countdown", w.Code)
	}
}

func TestMagicBoxApproveWithoutDraft(t *testing.T) {
	h, _ := newMagicBoxFixture(t)

	w := postJSON(t, h.Approve, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Approve status = %d, want 409 with no draft", w.Code)
	}
}
