package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Applier is the single path by which a transaction becomes durable and
// account balances change. Nothing else writes Account.Balance.
type Applier struct {
	store Store
	log   zerolog.Logger
}

// NewApplier creates an applier on the given store.
func NewApplier(store Store, log zerolog.Logger) *Applier {
	return &Applier{store: store, log: log}
}

// Commit validates, persists and applies a transaction in one store
// transaction. A repeated commit key is rejected with DuplicateCommitError
// before anything is written, so balance deltas are applied exactly once
// per key.
//
// Balance deltas are applied only for CONFIRMED transactions; a PENDING
// record is captured but not reflected until Confirm. A leg whose account
// reference does not resolve is skipped with a warning rather than failing
// the commit; entry capture is never lost to stale bookkeeping.
func (a *Applier) Commit(ctx context.Context, tx *Transaction) (*Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CommitKey == "" {
		tx.CommitKey = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}
	if tx.Status == "" {
		tx.Status = StatusConfirmed
	}
	if _, err := ParseStatus(string(tx.Status)); err != nil {
		return nil, err
	}
	if _, err := ParseSource(string(tx.Source)); err != nil {
		return nil, err
	}

	err := a.store.InTransaction(ctx, func(s Store) error {
		prior, err := s.FindTransactionByCommitKey(ctx, tx.CommitKey)
		if err != nil {
			return err
		}
		if prior != nil {
			return &DuplicateCommitError{CommitKey: tx.CommitKey, TransactionID: prior.ID}
		}

		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}

		if tx.Status != StatusConfirmed {
			return nil
		}
		return a.applyDeltas(ctx, s, tx)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("transaction_id", tx.ID).
		Str("kind", string(tx.Kind)).
		Str("amount", tx.Amount.String()).
		Msg("Transaction committed")
	return tx, nil
}

// Confirm transitions a PENDING transaction to CONFIRMED and applies its
// balance deltas, exactly once.
func (a *Applier) Confirm(ctx context.Context, id string) (*Transaction, error) {
	var out *Transaction
	err := a.store.InTransaction(ctx, func(s Store) error {
		tx, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return fmt.Errorf("Confirm: transaction %s not found", id)
		}
		if tx.Status != StatusPending {
			return fmt.Errorf("Confirm: transaction %s is %s, only PENDING can be confirmed", id, tx.Status)
		}

		tx.Status = StatusConfirmed
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		if err := a.applyDeltas(ctx, s, tx); err != nil {
			return err
		}
		out = tx
		return nil
	})
	return out, err
}

// Reject transitions a PENDING transaction to REJECTED. Balances are left
// untouched and the record is immutable afterwards.
func (a *Applier) Reject(ctx context.Context, id string) (*Transaction, error) {
	var out *Transaction
	err := a.store.InTransaction(ctx, func(s Store) error {
		tx, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return fmt.Errorf("Reject: transaction %s not found", id)
		}
		if tx.Status != StatusPending {
			return fmt.Errorf("Reject: transaction %s is %s, only PENDING can be rejected", id, tx.Status)
		}
		tx.Status = StatusRejected
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		out = tx
		return nil
	})
	return out, err
}

// applyDeltas mutates the balances of the accounts a transaction touches.
// EXPENSE debits the source, INCOME credits the destination, TRANSFER does
// both from one record.
func (a *Applier) applyDeltas(ctx context.Context, s Store, tx *Transaction) error {
	if tx.Kind == KindExpense || tx.Kind == KindTransfer {
		if err := a.adjust(ctx, s, tx, *tx.FromAccountID, tx.Amount.Neg()); err != nil {
			return err
		}
	}
	if tx.Kind == KindIncome || tx.Kind == KindTransfer {
		if err := a.adjust(ctx, s, tx, *tx.ToAccountID, tx.Amount); err != nil {
			return err
		}
	}
	return nil
}

// adjust applies one leg's delta. A dangling account reference skips the
// leg; the balance then silently excludes it until a reconciliation pass.
func (a *Applier) adjust(ctx context.Context, s Store, tx *Transaction, accountID string, delta decimal.Decimal) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		a.log.Warn().
			Str("transaction_id", tx.ID).
			Str("account_id", accountID).
			Msg("Dangling account reference, skipping balance leg")
		return nil
	}

	account.Balance = account.Balance.Add(delta)
	if err := s.SaveAccount(ctx, account); err != nil {
		return err
	}
	if account.Low() {
		a.log.Warn().
			Str("account_id", account.ID).
			Str("balance", account.Balance.String()).
			Str("threshold", account.ThresholdValue.String()).
			Msg("Account balance below safety threshold")
	}
	return nil
}
