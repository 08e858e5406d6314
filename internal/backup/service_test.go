package backup

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
	"github.com/dvloznov/money-mngr/internal/store/inmemory"
)

// fakeBlobStore keeps objects in a map.
type fakeBlobStore struct {
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, object string, data []byte) error {
	f.objects[object] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, object string) ([]byte, error) {
	data, ok := f.objects[object]
	if !ok {
		return nil, context.Canceled
	}
	return data, nil
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := inmemory.New()

	account := &ledger.Account{
		ID:             "acc-1",
		UserID:         "user-1",
		Name:           "Main Bank",
		Balance:        decimal.NewFromInt(4200),
		OpeningBalance: decimal.NewFromInt(5000),
	}
	if err := src.SaveAccount(ctx, account); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if err := src.SaveCategory(ctx, &ledger.Category{ID: "c1", UserID: "user-1", Name: "Food", Kind: ledger.KindExpense}); err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}
	from := "acc-1"
	if err := src.SaveTransaction(ctx, &ledger.Transaction{
		ID:            "t1",
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(800),
		Kind:          ledger.KindExpense,
		FromAccountID: &from,
		Status:        ledger.StatusConfirmed,
		Source:        ledger.SourceMagic,
		CommitKey:     "key-1",
	}); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}

	blobs := newFakeBlobStore()
	object, err := NewService(src, blobs, zerolog.Nop()).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(object, "backups/") || !strings.HasSuffix(object, ".json") {
		t.Errorf("object = %q, want backups/.../<id>.json", object)
	}

	// Restore into a fresh store with unrelated data.
	dst := inmemory.New()
	if err := dst.SaveAccount(ctx, &ledger.Account{ID: "stale", UserID: "user-1", Name: "Stale"}); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	if err := NewService(dst, blobs, zerolog.Nop()).Restore(ctx, object); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	accounts, err := dst.ListAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acc-1" {
		t.Fatalf("accounts after restore = %+v, want only acc-1", accounts)
	}
	if !accounts[0].Balance.Equal(decimal.NewFromInt(4200)) {
		t.Errorf("Balance = %s, want 4200", accounts[0].Balance)
	}

	tx, err := dst.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil || tx.CommitKey != "key-1" {
		t.Errorf("transaction after restore = %+v, want commit key key-1", tx)
	}
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	blobs.objects["bad.json"] = []byte("{not json")

	svc := NewService(inmemory.New(), blobs, zerolog.Nop())
	if err := svc.Restore(ctx, "bad.json"); err == nil {
		t.Fatal("Restore() error = nil, want unmarshal failure")
	}
}
