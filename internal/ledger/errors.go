package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidAmountError blocks a commit whose amount is non-positive. It is
// surfaced to the user before anything is persisted.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("ledger: invalid amount %s, must be positive", e.Amount)
}

// DuplicateCommitError is returned when a commit key has already been
// applied. The transaction and its balance deltas are left untouched.
type DuplicateCommitError struct {
	CommitKey     string
	TransactionID string
}

func (e *DuplicateCommitError) Error() string {
	return fmt.Sprintf("ledger: commit key %s already applied by transaction %s", e.CommitKey, e.TransactionID)
}
