package magicbox

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator coordinates one parse attempt per user action. The local path
// is synchronous and free; the oracle path is an explicit, costed trigger
// and only one oracle call may be in flight at a time.
type Orchestrator struct {
	matcher *Matcher
	oracle  Oracle
	log     zerolog.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewOrchestrator wires the matcher and oracle. A nil oracle disables the
// suggestion path (local parsing and manual entry keep working).
func NewOrchestrator(matcher *Matcher, oracle Oracle, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{matcher: matcher, oracle: oracle, log: log}
}

// ParseLocally runs the heuristic matcher. It returns nil for empty text or
// when nothing parseable is found; that is an empty result, not an error.
func (o *Orchestrator) ParseLocally(text string) *Draft {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	draft, err := o.matcher.Match(text)
	if err != nil {
		return nil
	}

	draft.CommitKey = uuid.NewString()
	if draft.CategoryHint == "" {
		draft.CategoryHint = SuggestCategoryName(text)
	}
	return draft
}

// ParseWithOracle calls the extraction oracle. It rejects overlapping calls
// with ErrSuggestInFlight so a slow round trip cannot be stacked. A
// successful result fully replaces whatever draft came before it; the most
// recently invoked parse wins.
func (o *Orchestrator) ParseWithOracle(ctx context.Context, text string) (*Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{Reason: "empty input text"}
	}
	if o.oracle == nil {
		return nil, &ExtractionError{Reason: "no oracle configured"}
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSuggestInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	draft, err := o.oracle.Suggest(ctx, text)
	if err != nil {
		o.log.Warn().Err(err).Msg("Oracle suggestion failed, falling back to manual entry")
		return nil, err
	}

	draft.CommitKey = uuid.NewString()
	o.log.Info().
		Str("bank", draft.Bank).
		Int("confidence", draft.Confidence).
		Msg("Oracle suggestion accepted")
	return draft, nil
}
