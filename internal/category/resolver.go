// Package category maps free-text category hints onto the user's existing
// taxonomy, proposing creation when nothing matches.
package category

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// Resolution is the outcome of resolving a hint: either an existing category
// id, or the raw hint as a creation suggestion. Both empty means the hint
// was empty or not applicable.
type Resolution struct {
	MatchedID  string
	Suggestion string
}

// Resolve matches a hint against existing categories by case-insensitive
// substring containment in either direction, constrained to the draft's
// kind. TRANSFER drafts carry no category and resolve to nothing. Resolve
// never creates anything; materializing a suggestion is the caller's call.
func Resolve(kind ledger.Kind, hint string, existing []*ledger.Category) Resolution {
	hint = strings.TrimSpace(hint)
	if hint == "" || kind == ledger.KindTransfer {
		return Resolution{}
	}

	lowered := strings.ToLower(hint)
	for _, c := range existing {
		if c.Kind != kind {
			continue
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(name, lowered) || strings.Contains(lowered, name) {
			return Resolution{MatchedID: c.ID}
		}
	}
	return Resolution{Suggestion: hint}
}

// New materializes a creation suggestion: a fresh Category with a generated
// id, default icon/color and an append-only sort order.
func New(userID, name string, kind ledger.Kind, existingCount int) *ledger.Category {
	return &ledger.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Kind:      kind,
		Icon:      "✨",
		Color:     "#a855f7",
		SortOrder: existingCount,
	}
}
