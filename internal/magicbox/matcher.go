package magicbox

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// Confidence contributions per extracted signal. Scoring is additive, so
// more signals never lower the score.
const (
	scoreInstitution = 30
	scoreAmount      = 30
	scoreAccount     = 20
	scoreKeyword     = 20

	// matchFloor is the minimum confidence for a usable match.
	matchFloor = 40
)

// Profile describes how one institution formats its notifications.
type Profile struct {
	// Name is the institution token scanned for (case-insensitive).
	Name string

	// Debit and Credit detect transaction direction. Debit is tested
	// first; if both would match, the draft is an EXPENSE.
	Debit  *regexp.Regexp
	Credit *regexp.Regexp

	// Amount captures the numeric amount (with thousands separators).
	Amount *regexp.Regexp

	// Account captures the masked account suffix (last 4 digits).
	Account *regexp.Regexp
}

// defaultProfiles is scanned in priority order; the first institution whose
// name token appears in the text wins and no other profile is consulted.
var defaultProfiles = []Profile{
	{
		Name:    "HDFC",
		Debit:   regexp.MustCompile(`(?i)debited|sent|withdrawn|payment`),
		Credit:  regexp.MustCompile(`(?i)credited|received|deposited`),
		Amount:  regexp.MustCompile(`(?i)Rs\.?\s?([\d,]+\.?\d*)`),
		Account: regexp.MustCompile(`(?i)A/c\s*\S*?(\d{4})\b`),
	},
	{
		Name:    "SBI",
		Debit:   regexp.MustCompile(`(?i)debited|transferred`),
		Credit:  regexp.MustCompile(`(?i)credited|received`),
		Amount:  regexp.MustCompile(`(?i)INR\s?([\d,]+\.?\d*)`),
		Account: regexp.MustCompile(`(?i)XX(\d{4})`),
	},
	{
		Name:    "ICICI",
		Debit:   regexp.MustCompile(`(?i)debited|spent|paid`),
		Credit:  regexp.MustCompile(`(?i)credited|received`),
		Amount:  regexp.MustCompile(`(?i)(?:INR|Rs\.?)\s?([\d,]+\.?\d*)`),
		Account: regexp.MustCompile(`(?i)A/c\s*\S*?(\d{4})\b`),
	},
	{
		Name:    "AXIS",
		Debit:   regexp.MustCompile(`(?i)debited|withdrawn`),
		Credit:  regexp.MustCompile(`(?i)credited|deposited`),
		Amount:  regexp.MustCompile(`(?i)(?:INR|Rs\.?)\s?([\d,]+\.?\d*)`),
		Account: regexp.MustCompile(`(?i)A/c\s*\S*?(\d{4})\b`),
	},
}

// Matcher is the regex-driven heuristic extractor. It is pure and cheap
// enough to run on every edit of the input text.
type Matcher struct {
	profiles []Profile
}

// NewMatcher creates a matcher with the built-in institution profiles.
func NewMatcher() *Matcher {
	return &Matcher{profiles: defaultProfiles}
}

// NewMatcherWithProfiles creates a matcher with a custom ordered profile set.
func NewMatcherWithProfiles(profiles []Profile) *Matcher {
	return &Matcher{profiles: profiles}
}

// Match extracts a draft from notification text. It returns ErrNoMatch when
// no institution token is present or the accumulated confidence stays below
// the floor.
func (m *Matcher) Match(text string) (*Draft, error) {
	upper := strings.ToUpper(text)

	for _, p := range m.profiles {
		if !strings.Contains(upper, p.Name) {
			continue
		}

		draft := &Draft{
			Kind:       ledger.KindExpense,
			Bank:       p.Name,
			Confidence: scoreInstitution,
			Provenance: ProvenanceHeuristic,
		}

		if sub := p.Amount.FindStringSubmatch(text); sub != nil {
			raw := strings.ReplaceAll(sub[1], ",", "")
			if amount, err := decimal.NewFromString(raw); err == nil && amount.IsPositive() {
				draft.Amount = amount
				draft.Confidence += scoreAmount
			}
		}

		if sub := p.Account.FindStringSubmatch(text); sub != nil {
			draft.AccountLast4 = sub[1]
			draft.Confidence += scoreAccount
		}

		switch {
		case p.Debit.MatchString(text):
			draft.Kind = ledger.KindExpense
			draft.Confidence += scoreKeyword
		case p.Credit.MatchString(text):
			draft.Kind = ledger.KindIncome
			draft.Confidence += scoreKeyword
		}

		// First matching profile wins; no multi-profile merging.
		if draft.Confidence < matchFloor {
			return nil, ErrNoMatch
		}
		return draft, nil
	}

	return nil, ErrNoMatch
}

// merchantHints maps merchant keywords to starter category names. Used only
// for heuristic drafts; the oracle supplies its own category hint.
var merchantHints = []struct {
	keywords []string
	category string
}{
	{[]string{"swiggy", "zomato"}, "Food"},
	{[]string{"uber", "ola"}, "Transport"},
	{[]string{"salary"}, "Salary"},
}

// SuggestCategoryName returns a category-name hint for the text, or "" when
// no merchant keyword is recognized.
func SuggestCategoryName(text string) string {
	lower := strings.ToLower(text)
	for _, h := range merchantHints {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				return h.category
			}
		}
	}
	return ""
}
