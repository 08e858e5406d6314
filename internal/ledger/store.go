package ledger

import (
	"context"
	"time"
)

// Store is the key-addressed durable store behind the ledger. Implementations
// live in internal/store; the domain depends only on this interface so tests
// can substitute fakes.
//
// InTransaction must be atomic: either every write inside fn becomes durable,
// or none does. Get methods return (nil, nil) for a missing record; errors are
// reserved for storage failures. The applier relies on this to tolerate
// dangling account references without aborting a commit.
type Store interface {
	InTransaction(ctx context.Context, fn func(Store) error) error

	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccounts(ctx context.Context, userID string) ([]*Account, error)
	SaveAccount(ctx context.Context, a *Account) error

	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context, userID string) ([]*Category, error)
	SaveCategory(ctx context.Context, c *Category) error

	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	FindTransactionByCommitKey(ctx context.Context, key string) (*Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]*Transaction, error)
	SaveTransaction(ctx context.Context, t *Transaction) error

	ListAccountTypes(ctx context.Context, userID string) ([]*AccountType, error)
	SaveAccountType(ctx context.Context, t *AccountType) error

	ListAccountGroups(ctx context.Context, userID string) ([]*AccountGroup, error)
	SaveAccountGroup(ctx context.Context, g *AccountGroup) error

	// Export dumps every collection for backup.
	Export(ctx context.Context) (*Snapshot, error)

	// Replace clears every collection and bulk-inserts the snapshot, all
	// inside one transaction. Used by restore.
	Replace(ctx context.Context, snap *Snapshot) error
}

// Snapshot is the full entity set serialized by backup and consumed by
// restore.
type Snapshot struct {
	Accounts      []*Account      `json:"accounts"`
	Categories    []*Category     `json:"categories"`
	Transactions  []*Transaction  `json:"transactions"`
	AccountTypes  []*AccountType  `json:"accountTypes"`
	AccountGroups []*AccountGroup `json:"accountGroups"`
	Timestamp     time.Time       `json:"timestamp"`
}
