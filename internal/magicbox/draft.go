// Package magicbox turns raw bank-notification text into committed ledger
// transactions: a regex heuristic matcher for instant feedback, a Gemini
// extraction oracle for explicit re-parses, and a single-draft session that
// governs auto-commit, manual approval and hold.
package magicbox

import (
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// Provenance records which path produced a draft.
type Provenance string

const (
	ProvenanceHeuristic Provenance = "HEURISTIC"
	ProvenanceOracle    Provenance = "ORACLE"
)

// Draft is an in-memory candidate transaction. It lives for one entry
// session and is discarded on commit or cancel; it is never persisted.
type Draft struct {
	Amount       decimal.Decimal
	Kind         ledger.Kind
	Bank         string
	Merchant     string
	AccountLast4 string
	CategoryHint string
	Confidence   int
	Provenance   Provenance

	// CommitKey is the idempotency key for this draft. It is assigned once
	// when the draft is created, so a double-submit of the same draft
	// carries the same key and the applier rejects the repeat.
	CommitKey string

	// Resolver output, attached after the draft exists. At most one of the
	// two is set.
	CategoryID         string
	CategorySuggestion string

	// AccountID pins the draft to a specific account. When empty the
	// committer picks one by matching AccountLast4, falling back to the
	// first account.
	AccountID string
}
