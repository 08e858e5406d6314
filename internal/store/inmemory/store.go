// Package inmemory provides a map-backed Store used by tests and by
// single-session tooling that does not need durability.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// Store keeps every collection in maps guarded by one mutex. InTransaction
// snapshots the maps and restores them if fn fails, which mirrors the
// rollback behavior of the SQLite store closely enough for tests.
type Store struct {
	mu            sync.Mutex
	accounts      map[string]ledger.Account
	categories    map[string]ledger.Category
	transactions  map[string]ledger.Transaction
	accountTypes  map[string]ledger.AccountType
	accountGroups map[string]ledger.AccountGroup
	inTx          bool
}

var _ ledger.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:      make(map[string]ledger.Account),
		categories:    make(map[string]ledger.Category),
		transactions:  make(map[string]ledger.Transaction),
		accountTypes:  make(map[string]ledger.AccountType),
		accountGroups: make(map[string]ledger.AccountGroup),
	}
}

func (s *Store) InTransaction(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	if s.inTx {
		// Nested transaction joins the outer one.
		s.mu.Unlock()
		return fn(s)
	}

	backup := s.cloneLocked()
	s.inTx = true
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	s.inTx = false
	if err != nil {
		s.accounts = backup.accounts
		s.categories = backup.categories
		s.transactions = backup.transactions
		s.accountTypes = backup.accountTypes
		s.accountGroups = backup.accountGroups
	}
	s.mu.Unlock()
	return err
}

func (s *Store) cloneLocked() *Store {
	c := New()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.accountTypes {
		c.accountTypes[k] = v
	}
	for k, v := range s.accountGroups {
		c.accountGroups[k] = v
	}
	return c
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *Store) SaveAccount(ctx context.Context, a *ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = *a
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]*ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *Store) SaveCategory(ctx context.Context, c *ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.transactions[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (s *Store) FindTransactionByCommitKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.CommitKey == key {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) SaveTransaction(ctx context.Context, t *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = *t
	return nil
}

func (s *Store) ListAccountTypes(ctx context.Context, userID string) ([]*ledger.AccountType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.AccountType
	for _, t := range s.accountTypes {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveAccountType(ctx context.Context, t *ledger.AccountType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountTypes[t.ID] = *t
	return nil
}

func (s *Store) ListAccountGroups(ctx context.Context, userID string) ([]*ledger.AccountGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.AccountGroup
	for _, g := range s.accountGroups {
		if g.UserID == userID {
			g := g
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *Store) SaveAccountGroup(ctx context.Context, g *ledger.AccountGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountGroups[g.ID] = *g
	return nil
}

func (s *Store) Export(ctx context.Context) (*ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &ledger.Snapshot{Timestamp: time.Now().UTC()}
	for _, a := range s.accounts {
		a := a
		snap.Accounts = append(snap.Accounts, &a)
	}
	for _, c := range s.categories {
		c := c
		snap.Categories = append(snap.Categories, &c)
	}
	for _, t := range s.transactions {
		t := t
		snap.Transactions = append(snap.Transactions, &t)
	}
	for _, t := range s.accountTypes {
		t := t
		snap.AccountTypes = append(snap.AccountTypes, &t)
	}
	for _, g := range s.accountGroups {
		g := g
		snap.AccountGroups = append(snap.AccountGroups, &g)
	}
	sort.Slice(snap.Accounts, func(i, j int) bool { return snap.Accounts[i].ID < snap.Accounts[j].ID })
	sort.Slice(snap.Transactions, func(i, j int) bool { return snap.Transactions[i].ID < snap.Transactions[j].ID })
	return snap, nil
}

func (s *Store) Replace(ctx context.Context, snap *ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string]ledger.Account)
	s.categories = make(map[string]ledger.Category)
	s.transactions = make(map[string]ledger.Transaction)
	s.accountTypes = make(map[string]ledger.AccountType)
	s.accountGroups = make(map[string]ledger.AccountGroup)
	for _, a := range snap.Accounts {
		s.accounts[a.ID] = *a
	}
	for _, c := range snap.Categories {
		s.categories[c.ID] = *c
	}
	for _, t := range snap.Transactions {
		s.transactions[t.ID] = *t
	}
	for _, t := range snap.AccountTypes {
		s.accountTypes[t.ID] = *t
	}
	for _, g := range snap.AccountGroups {
		s.accountGroups[g.ID] = *g
	}
	return nil
}
