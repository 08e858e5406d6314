package category

import (
	"testing"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

func existingCategories() []*ledger.Category {
	return []*ledger.Category{
		{ID: "c1", Name: "Food & Dining", Kind: ledger.KindExpense},
		{ID: "c2", Name: "Transport", Kind: ledger.KindExpense},
		{ID: "c3", Name: "Salary", Kind: ledger.KindIncome},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name           string
		kind           ledger.Kind
		hint           string
		wantMatchedID  string
		wantSuggestion string
	}{
		{"hint contained in name", ledger.KindExpense, "food", "c1", ""},
		{"name contained in hint", ledger.KindExpense, "local transport pass", "c2", ""},
		{"case insensitive", ledger.KindExpense, "FOOD", "c1", ""},
		{"kind filtered", ledger.KindExpense, "salary", "", "salary"},
		{"income hint matches income category", ledger.KindIncome, "salary", "c3", ""},
		{"no match becomes suggestion", ledger.KindExpense, "Crypto", "", "Crypto"},
		{"whitespace trimmed", ledger.KindExpense, "  Crypto  ", "", "Crypto"},
		{"empty hint", ledger.KindExpense, "", "", ""},
		{"transfer never resolves", ledger.KindTransfer, "food", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.kind, tt.hint, existingCategories())
			if got.MatchedID != tt.wantMatchedID {
				t.Errorf("MatchedID = %q, want %q", got.MatchedID, tt.wantMatchedID)
			}
			if got.Suggestion != tt.wantSuggestion {
				t.Errorf("Suggestion = %q, want %q", got.Suggestion, tt.wantSuggestion)
			}
		})
	}
}

func TestNew(t *testing.T) {
	c := New("user-1", "  Crypto ", ledger.KindExpense, 7)

	if c.ID == "" {
		t.Error("ID should be generated")
	}
	if c.Name != "Crypto" {
		t.Errorf("Name = %q, want Crypto", c.Name)
	}
	if c.Kind != ledger.KindExpense {
		t.Errorf("Kind = %q, want EXPENSE", c.Kind)
	}
	if c.SortOrder != 7 {
		t.Errorf("SortOrder = %d, want 7", c.SortOrder)
	}
	if c.Icon == "" || c.Color == "" {
		t.Error("default icon and color should be set")
	}
}
