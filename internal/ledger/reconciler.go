package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Adjustment records one balance correction made by a reconciliation pass.
type Adjustment struct {
	AccountID string          `json:"accountId"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
}

// Reconcile recomputes every account balance from its opening balance plus
// the deltas of all CONFIRMED transactions, and overwrites any stored
// balance that drifted. Incremental application is the fast path; this is
// the authoritative one.
func (a *Applier) Reconcile(ctx context.Context, userID string) ([]Adjustment, error) {
	var adjustments []Adjustment

	err := a.store.InTransaction(ctx, func(s Store) error {
		accounts, err := s.ListAccounts(ctx, userID)
		if err != nil {
			return err
		}
		txs, err := s.ListTransactions(ctx, userID)
		if err != nil {
			return err
		}

		computed := make(map[string]decimal.Decimal, len(accounts))
		for _, acc := range accounts {
			computed[acc.ID] = acc.OpeningBalance
		}

		for _, tx := range txs {
			if tx.Status != StatusConfirmed {
				continue
			}
			if tx.Kind == KindExpense || tx.Kind == KindTransfer {
				if id := deref(tx.FromAccountID); id != "" {
					if bal, ok := computed[id]; ok {
						computed[id] = bal.Sub(tx.Amount)
					}
				}
			}
			if tx.Kind == KindIncome || tx.Kind == KindTransfer {
				if id := deref(tx.ToAccountID); id != "" {
					if bal, ok := computed[id]; ok {
						computed[id] = bal.Add(tx.Amount)
					}
				}
			}
		}

		for _, acc := range accounts {
			want := computed[acc.ID]
			if acc.Balance.Equal(want) {
				continue
			}
			adjustments = append(adjustments, Adjustment{
				AccountID: acc.ID,
				Stored:    acc.Balance,
				Computed:  want,
			})
			acc.Balance = want
			if err := s.SaveAccount(ctx, acc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, adj := range adjustments {
		a.log.Warn().
			Str("account_id", adj.AccountID).
			Str("stored", adj.Stored.String()).
			Str("computed", adj.Computed.String()).
			Msg("Balance drift corrected")
	}
	return adjustments, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
