package magicbox

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

func TestDecodeSuggestion(t *testing.T) {
	draft, err := decodeSuggestion(`{"amount": 1250.5, "type": "EXPENSE", "bankName": "HDFC", "merchant": "Swiggy", "category": "Food", "confidence": 92}`)
	if err != nil {
		t.Fatalf("decodeSuggestion() error = %v", err)
	}

	if !draft.Amount.Equal(decimal.NewFromFloat(1250.5)) {
		t.Errorf("Amount = %s, want 1250.5", draft.Amount)
	}
	if draft.Kind != ledger.KindExpense {
		t.Errorf("Kind = %q, want EXPENSE", draft.Kind)
	}
	if draft.Bank != "HDFC" {
		t.Errorf("Bank = %q, want HDFC", draft.Bank)
	}
	if draft.Merchant != "Swiggy" {
		t.Errorf("Merchant = %q, want Swiggy", draft.Merchant)
	}
	if draft.CategoryHint != "Food" {
		t.Errorf("CategoryHint = %q, want Food", draft.CategoryHint)
	}
	if draft.Confidence != 92 {
		t.Errorf("Confidence = %d, want 92", draft.Confidence)
	}
	if draft.Provenance != ProvenanceOracle {
		t.Errorf("Provenance = %q, want ORACLE", draft.Provenance)
	}
}

func TestDecodeSuggestionDefaults(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantConfidence int
		wantBank       string
	}{
		{
			name:           "missing confidence defaults",
			raw:            `{"amount": 10, "type": "INCOME", "bankName": "SBI"}`,
			wantConfidence: 80,
			wantBank:       "SBI",
		},
		{
			name:           "out of range confidence defaults",
			raw:            `{"amount": 10, "type": "INCOME", "bankName": "SBI", "confidence": 250}`,
			wantConfidence: 80,
			wantBank:       "SBI",
		},
		{
			name:           "empty bank name",
			raw:            `{"amount": 10, "type": "INCOME", "bankName": "  "}`,
			wantConfidence: 80,
			wantBank:       "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := decodeSuggestion(tt.raw)
			if err != nil {
				t.Fatalf("decodeSuggestion() error = %v", err)
			}
			if draft.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %d, want %d", draft.Confidence, tt.wantConfidence)
			}
			if draft.Bank != tt.wantBank {
				t.Errorf("Bank = %q, want %q", draft.Bank, tt.wantBank)
			}
		})
	}
}

func TestDecodeSuggestionRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed JSON", `{"amount": `},
		{"missing amount", `{"type": "EXPENSE", "bankName": "HDFC"}`},
		{"zero amount", `{"amount": 0, "type": "EXPENSE", "bankName": "HDFC"}`},
		{"negative amount", `{"amount": -5, "type": "EXPENSE", "bankName": "HDFC"}`},
		{"unknown kind", `{"amount": 10, "type": "REFUND", "bankName": "HDFC"}`},
		{"transfer outside schema", `{"amount": 10, "type": "TRANSFER", "bankName": "HDFC"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSuggestion(tt.raw)
			if err == nil {
				t.Fatal("decodeSuggestion() error = nil, want *ExtractionError")
			}
			if _, ok := err.(*ExtractionError); !ok {
				t.Errorf("error type = %T, want *ExtractionError", err)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here is the result: {\"a\":1}", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
