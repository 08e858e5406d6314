package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// SeedDefaults provisions first-run reference data: account types, starter
// categories, a primary group and one default account. It is a no-op when
// the user already has account types.
func SeedDefaults(ctx context.Context, s ledger.Store, userID string) error {
	types, err := s.ListAccountTypes(ctx, userID)
	if err != nil {
		return fmt.Errorf("SeedDefaults: %w", err)
	}
	if len(types) > 0 {
		return nil
	}

	bankType := &ledger.AccountType{ID: uuid.NewString(), UserID: userID, Name: "Bank", Icon: "🏦"}
	defaults := []*ledger.AccountType{
		bankType,
		{ID: uuid.NewString(), UserID: userID, Name: "Cash", Icon: "💵"},
		{ID: uuid.NewString(), UserID: userID, Name: "Wallet", Icon: "👛"},
		{ID: uuid.NewString(), UserID: userID, Name: "Credit Card", Icon: "💳", IsLiability: true},
	}
	for _, t := range defaults {
		if err := s.SaveAccountType(ctx, t); err != nil {
			return fmt.Errorf("SeedDefaults: account type %q: %w", t.Name, err)
		}
	}

	categories := []*ledger.Category{
		{ID: uuid.NewString(), UserID: userID, Name: "Food", Kind: ledger.KindExpense, Icon: "🍔", Color: "#ef4444", SortOrder: 0},
		{ID: uuid.NewString(), UserID: userID, Name: "Transport", Kind: ledger.KindExpense, Icon: "🚗", Color: "#3b82f6", SortOrder: 1},
		{ID: uuid.NewString(), UserID: userID, Name: "Salary", Kind: ledger.KindIncome, Icon: "💰", Color: "#10b981", SortOrder: 0},
	}
	for _, c := range categories {
		if err := s.SaveCategory(ctx, c); err != nil {
			return fmt.Errorf("SeedDefaults: category %q: %w", c.Name, err)
		}
	}

	group := &ledger.AccountGroup{ID: uuid.NewString(), UserID: userID, Name: "Primary"}
	if err := s.SaveAccountGroup(ctx, group); err != nil {
		return fmt.Errorf("SeedDefaults: account group: %w", err)
	}

	opening := decimal.NewFromInt(5000)
	account := &ledger.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           "Main Bank",
		TypeID:         bankType.ID,
		GroupID:        group.ID,
		Balance:        opening,
		OpeningBalance: opening,
		ThresholdValue: decimal.NewFromInt(500),
		Color:          "#7c3aed",
		Icon:           "🏦",
	}
	if err := s.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("SeedDefaults: default account: %w", err)
	}

	return nil
}
