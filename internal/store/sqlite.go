package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// DB is the SQLite-backed Store. gorm transactions give Replace and the
// applier their all-or-nothing write semantics.
type DB struct {
	db *gorm.DB
}

var _ ledger.Store = (*DB)(nil)

// Open opens (or creates) the database file and migrates the schema.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store.Open: connecting to %q: %w", path, err)
	}

	if err := db.AutoMigrate(
		&ledger.Account{},
		&ledger.Category{},
		&ledger.Transaction{},
		&ledger.AccountType{},
		&ledger.AccountGroup{},
	); err != nil {
		return nil, fmt.Errorf("store.Open: migrating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// InTransaction runs fn against a transactional view of the store.
func (d *DB) InTransaction(ctx context.Context, fn func(ledger.Store) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}

func (d *DB) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var a ledger.Account
	err := d.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetAccount: %w", err)
	}
	return &a, nil
}

func (d *DB) ListAccounts(ctx context.Context, userID string) ([]*ledger.Account, error) {
	var accounts []*ledger.Account
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order, created_at").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("store.ListAccounts: %w", err)
	}
	return accounts, nil
}

func (d *DB) SaveAccount(ctx context.Context, a *ledger.Account) error {
	if err := d.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("store.SaveAccount: %w", err)
	}
	return nil
}

func (d *DB) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	var c ledger.Category
	err := d.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetCategory: %w", err)
	}
	return &c, nil
}

func (d *DB) ListCategories(ctx context.Context, userID string) ([]*ledger.Category, error) {
	var categories []*ledger.Category
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order, created_at").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("store.ListCategories: %w", err)
	}
	return categories, nil
}

func (d *DB) SaveCategory(ctx context.Context, c *ledger.Category) error {
	if err := d.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("store.SaveCategory: %w", err)
	}
	return nil
}

func (d *DB) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	var t ledger.Transaction
	err := d.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetTransaction: %w", err)
	}
	return &t, nil
}

func (d *DB) FindTransactionByCommitKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	var t ledger.Transaction
	err := d.db.WithContext(ctx).First(&t, "commit_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.FindTransactionByCommitKey: %w", err)
	}
	return &t, nil
}

func (d *DB) ListTransactions(ctx context.Context, userID string) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("store.ListTransactions: %w", err)
	}
	return txs, nil
}

func (d *DB) SaveTransaction(ctx context.Context, t *ledger.Transaction) error {
	if err := d.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("store.SaveTransaction: %w", err)
	}
	return nil
}

func (d *DB) ListAccountTypes(ctx context.Context, userID string) ([]*ledger.AccountType, error) {
	var types []*ledger.AccountType
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&types).Error
	if err != nil {
		return nil, fmt.Errorf("store.ListAccountTypes: %w", err)
	}
	return types, nil
}

func (d *DB) SaveAccountType(ctx context.Context, t *ledger.AccountType) error {
	if err := d.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("store.SaveAccountType: %w", err)
	}
	return nil
}

func (d *DB) ListAccountGroups(ctx context.Context, userID string) ([]*ledger.AccountGroup, error) {
	var groups []*ledger.AccountGroup
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("sort_order").Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("store.ListAccountGroups: %w", err)
	}
	return groups, nil
}

func (d *DB) SaveAccountGroup(ctx context.Context, g *ledger.AccountGroup) error {
	if err := d.db.WithContext(ctx).Save(g).Error; err != nil {
		return fmt.Errorf("store.SaveAccountGroup: %w", err)
	}
	return nil
}

// Export dumps every collection for backup.
func (d *DB) Export(ctx context.Context) (*ledger.Snapshot, error) {
	snap := &ledger.Snapshot{Timestamp: time.Now().UTC()}

	db := d.db.WithContext(ctx)
	if err := db.Find(&snap.Accounts).Error; err != nil {
		return nil, fmt.Errorf("store.Export: accounts: %w", err)
	}
	if err := db.Find(&snap.Categories).Error; err != nil {
		return nil, fmt.Errorf("store.Export: categories: %w", err)
	}
	if err := db.Find(&snap.Transactions).Error; err != nil {
		return nil, fmt.Errorf("store.Export: transactions: %w", err)
	}
	if err := db.Find(&snap.AccountTypes).Error; err != nil {
		return nil, fmt.Errorf("store.Export: account types: %w", err)
	}
	if err := db.Find(&snap.AccountGroups).Error; err != nil {
		return nil, fmt.Errorf("store.Export: account groups: %w", err)
	}
	return snap, nil
}

// Replace clears every collection and bulk-inserts the snapshot in one
// transaction.
func (d *DB) Replace(ctx context.Context, snap *ledger.Snapshot) error {
	return d.InTransaction(ctx, func(s ledger.Store) error {
		tx := s.(*DB).db.WithContext(ctx)

		for _, model := range []interface{}{
			&ledger.Transaction{},
			&ledger.Account{},
			&ledger.Category{},
			&ledger.AccountType{},
			&ledger.AccountGroup{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("store.Replace: clearing %T: %w", model, err)
			}
		}

		if len(snap.Accounts) > 0 {
			if err := tx.Create(snap.Accounts).Error; err != nil {
				return fmt.Errorf("store.Replace: inserting accounts: %w", err)
			}
		}
		if len(snap.Categories) > 0 {
			if err := tx.Create(snap.Categories).Error; err != nil {
				return fmt.Errorf("store.Replace: inserting categories: %w", err)
			}
		}
		if len(snap.Transactions) > 0 {
			if err := tx.Create(snap.Transactions).Error; err != nil {
				return fmt.Errorf("store.Replace: inserting transactions: %w", err)
			}
		}
		if len(snap.AccountTypes) > 0 {
			if err := tx.Create(snap.AccountTypes).Error; err != nil {
				return fmt.Errorf("store.Replace: inserting account types: %w", err)
			}
		}
		if len(snap.AccountGroups) > 0 {
			if err := tx.Create(snap.AccountGroups).Error; err != nil {
				return fmt.Errorf("store.Replace: inserting account groups: %w", err)
			}
		}
		return nil
	})
}
