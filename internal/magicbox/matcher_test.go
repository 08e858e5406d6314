package magicbox

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

func TestMatcherFullSignal(t *testing.T) {
	m := NewMatcher()

	draft, err := m.Match("HDFC Bank: Rs. 1250.00 debited from A/c XX1234 on 01-01 to Swiggy")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	if draft.Bank != "HDFC" {
		t.Errorf("Bank = %q, want HDFC", draft.Bank)
	}
	if draft.Kind != ledger.KindExpense {
		t.Errorf("Kind = %q, want EXPENSE", draft.Kind)
	}
	if !draft.Amount.Equal(decimal.RequireFromString("1250.00")) {
		t.Errorf("Amount = %s, want 1250.00", draft.Amount)
	}
	if draft.AccountLast4 != "1234" {
		t.Errorf("AccountLast4 = %q, want 1234", draft.AccountLast4)
	}
	if draft.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", draft.Confidence)
	}
	if draft.Provenance != ProvenanceHeuristic {
		t.Errorf("Provenance = %q, want HEURISTIC", draft.Provenance)
	}
}

func TestMatcherPartialSignal(t *testing.T) {
	m := NewMatcher()

	// Institution, amount and direction keyword but no account suffix.
	draft, err := m.Match("Dear SBI customer, INR 5,000.00 credited to your account")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	if draft.Kind != ledger.KindIncome {
		t.Errorf("Kind = %q, want INCOME", draft.Kind)
	}
	if !draft.Amount.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("Amount = %s, want 5000.00", draft.Amount)
	}
	if draft.Confidence != 80 {
		t.Errorf("Confidence = %d, want 80", draft.Confidence)
	}
}

func TestMatcherNoMatch(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name string
		text string
	}{
		{"no institution", "you spent Rs. 500 at the store"},
		{"institution only, below floor", "HDFC alert"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Match(tt.text); !errors.Is(err, ErrNoMatch) {
				t.Errorf("Match(%q) error = %v, want ErrNoMatch", tt.text, err)
			}
		})
	}
}

func TestMatcherDebitWinsOverCredit(t *testing.T) {
	m := NewMatcher()

	// Both direction keywords present; debit is tested first.
	draft, err := m.Match("HDFC: Rs. 100 debited, cashback will be credited later")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if draft.Kind != ledger.KindExpense {
		t.Errorf("Kind = %q, want EXPENSE", draft.Kind)
	}
}

func TestMatcherFirstProfileWins(t *testing.T) {
	m := NewMatcher()

	// HDFC appears first in the profile order, so SBI's INR format is not
	// consulted even though both names are present.
	draft, err := m.Match("HDFC to SBI: Rs. 250 debited from A/c XX4321")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if draft.Bank != "HDFC" {
		t.Errorf("Bank = %q, want HDFC", draft.Bank)
	}
}

func TestMatcherLongMaskCapturesLastFour(t *testing.T) {
	m := NewMatcher()

	draft, err := m.Match("HDFC: Rs. 99.50 debited from A/c XX123456 today")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if draft.AccountLast4 != "3456" {
		t.Errorf("AccountLast4 = %q, want 3456", draft.AccountLast4)
	}
}

func TestSuggestCategoryName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"payment to Swiggy successful", "Food"},
		{"ZOMATO order delivered", "Food"},
		{"your Uber ride receipt", "Transport"},
		{"OLA trip fare", "Transport"},
		{"salary credited for August", "Salary"},
		{"electricity bill paid", ""},
	}

	for _, tt := range tests {
		if got := SuggestCategoryName(tt.text); got != tt.want {
			t.Errorf("SuggestCategoryName(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
