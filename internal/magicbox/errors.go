package magicbox

import (
	"errors"
	"fmt"
)

// ErrNoMatch reports that no institution profile matched the text. It is a
// legitimate empty result, not a failure; callers fall back to manual entry
// or the oracle.
var ErrNoMatch = errors.New("magicbox: no bank pattern matched")

// ErrSuggestInFlight rejects overlapping oracle calls for the same draft.
var ErrSuggestInFlight = errors.New("magicbox: oracle suggestion already in flight")

// ErrNoDraft reports an approve or hold with nothing to act on.
var ErrNoDraft = errors.New("magicbox: no draft in session")

// ExtractionError covers every way the oracle path can fail: transport
// errors, timeouts, and responses that do not fit the extraction schema.
// The orchestration boundary recovers it by redirecting to manual entry.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("magicbox: extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("magicbox: extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
