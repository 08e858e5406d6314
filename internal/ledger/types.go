package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of transaction kinds. External input (the oracle,
// the HTTP API) must go through ParseKind; nothing else constructs one from
// a raw string.
type Kind string

const (
	KindExpense  Kind = "EXPENSE"
	KindIncome   Kind = "INCOME"
	KindTransfer Kind = "TRANSFER"
)

// ParseKind validates a raw kind value from an external boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindExpense, KindIncome, KindTransfer:
		return Kind(s), nil
	}
	return "", fmt.Errorf("ParseKind: unknown transaction kind %q", s)
}

// Status is the lifecycle state of a persisted transaction.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusPending   Status = "PENDING"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus validates a raw status value from an external boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusConfirmed, StatusPending, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("ParseStatus: unknown transaction status %q", s)
}

// Source records where a transaction's data came from: direct user entry,
// bulk import, or the magic box parse pipeline.
type Source string

const (
	SourceManual   Source = "MANUAL"
	SourceImported Source = "IMPORTED"
	SourceMagic    Source = "MAGIC"
)

// ParseSource validates a raw source value from an external boundary.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceManual, SourceImported, SourceMagic:
		return Source(s), nil
	}
	return "", fmt.Errorf("ParseSource: unknown transaction source %q", s)
}

// Transaction is one ledger entry. A TRANSFER carries both legs in a single
// record via FromAccountID and ToAccountID; it is never split in two.
type Transaction struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	UserID        string          `gorm:"index" json:"userId"`
	Date          time.Time       `gorm:"index" json:"date"`
	Amount        decimal.Decimal `gorm:"type:numeric" json:"amount"`
	Currency      string          `json:"currency"`
	Kind          Kind            `gorm:"index" json:"transactionType"`
	FromAccountID *string         `gorm:"index" json:"fromAccountId,omitempty"`
	ToAccountID   *string         `gorm:"index" json:"toAccountId,omitempty"`
	CategoryID    *string         `gorm:"index" json:"categoryId,omitempty"`
	Description   string          `json:"description"`
	Status        Status          `json:"status"`
	Source        Source          `json:"source"`

	// CommitKey is the client-generated idempotency key assigned when a
	// draft is handed to the applier. The applier refuses to apply the
	// same key twice.
	CommitKey string `gorm:"uniqueIndex" json:"commitKey"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate enforces the structural invariants of a transaction before it is
// persisted: a positive amount, a known kind, and account references that
// match the kind (exactly one of from/to for EXPENSE/INCOME, both for
// TRANSFER, no category on a TRANSFER).
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return &InvalidAmountError{Amount: t.Amount}
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}

	hasFrom := t.FromAccountID != nil && *t.FromAccountID != ""
	hasTo := t.ToAccountID != nil && *t.ToAccountID != ""

	switch t.Kind {
	case KindExpense:
		if !hasFrom || hasTo {
			return fmt.Errorf("ledger: EXPENSE requires a source account and no destination")
		}
	case KindIncome:
		if !hasTo || hasFrom {
			return fmt.Errorf("ledger: INCOME requires a destination account and no source")
		}
	case KindTransfer:
		if !hasFrom || !hasTo {
			return fmt.Errorf("ledger: TRANSFER requires both source and destination accounts")
		}
		if t.CategoryID != nil && *t.CategoryID != "" {
			return fmt.Errorf("ledger: TRANSFER must not carry a category")
		}
	}
	return nil
}

// Account holds an incrementally maintained balance. Only the applier (and
// the reconciler it exposes) writes Balance; everything else reads it.
type Account struct {
	ID             string          `gorm:"primaryKey" json:"id"`
	UserID         string          `gorm:"index" json:"userId"`
	Name           string          `json:"name"`
	TypeID         string          `gorm:"index" json:"typeId"`
	GroupID        string          `gorm:"index" json:"groupId"`
	Balance        decimal.Decimal `gorm:"type:numeric" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric" json:"openingBalance"`
	ThresholdValue decimal.Decimal `gorm:"type:numeric" json:"thresholdValue"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	SortOrder      int             `json:"sortOrder"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Low reports whether the balance has dropped below the safety threshold.
func (a *Account) Low() bool {
	return a.Balance.LessThan(a.ThresholdValue)
}

// Category is user-owned taxonomy. Categories are typed EXPENSE or INCOME,
// never TRANSFER.
type Category struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"userId"`
	Name      string    `json:"name"`
	Kind      Kind      `gorm:"index" json:"type"`
	ParentID  *string   `gorm:"index" json:"parentId,omitempty"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountType classifies accounts (bank, cash, credit card, ...).
type AccountType struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"index" json:"userId"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	IsLiability bool      `json:"isLiability"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AccountGroup is a display grouping of accounts.
type AccountGroup struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"userId"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
