package store

import (
	"context"
	"testing"

	"github.com/dvloznov/money-mngr/internal/store/inmemory"
)

func TestSeedDefaultsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := inmemory.New()

	if err := SeedDefaults(ctx, s, "user-1"); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	types, err := s.ListAccountTypes(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAccountTypes: %v", err)
	}
	if len(types) == 0 {
		t.Fatal("account types should be seeded")
	}
	categories, _ := s.ListCategories(ctx, "user-1")
	if len(categories) == 0 {
		t.Fatal("categories should be seeded")
	}
	accounts, _ := s.ListAccounts(ctx, "user-1")
	if len(accounts) != 1 {
		t.Fatalf("accounts = %d, want 1 starter account", len(accounts))
	}

	// A second run must not duplicate anything.
	if err := SeedDefaults(ctx, s, "user-1"); err != nil {
		t.Fatalf("second SeedDefaults() error = %v", err)
	}
	typesAgain, _ := s.ListAccountTypes(ctx, "user-1")
	if len(typesAgain) != len(types) {
		t.Errorf("account types after reseed = %d, want %d", len(typesAgain), len(types))
	}
	accountsAgain, _ := s.ListAccounts(ctx, "user-1")
	if len(accountsAgain) != 1 {
		t.Errorf("accounts after reseed = %d, want 1", len(accountsAgain))
	}
}
