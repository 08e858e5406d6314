package magicbox

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the commit state machine's position. COMMITTED and HELD are
// transitions, not resting states: a successful commit lands back in EMPTY
// and a hold lands back in DRAFTED.
type State string

const (
	StateEmpty     State = "EMPTY"
	StateDrafted   State = "DRAFTED"
	StateCountdown State = "COUNTDOWN"
)

// DefaultAutoCommitThreshold is the confidence at which an oracle draft
// arms the auto-commit countdown.
const DefaultAutoCommitThreshold = 80

// CommitFunc hands a finalized draft to the ledger applier.
type CommitFunc func(ctx context.Context, d *Draft) error

// Session is the single-draft commit state machine. Only one draft is live
// per entry session; a new parse replaces it wholesale. The countdown is an
// explicitly cancellable scheduled task: a generation counter invalidates
// timers synchronously on every transition out of COUNTDOWN, so a late fire
// can never commit a draft the user already discarded.
type Session struct {
	commit CommitFunc
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	draft     *Draft
	tick      time.Duration
	total     int
	ticksLeft int
	timer     *time.Timer
	gen       uint64
	threshold int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTick overrides the countdown tick length (tests use a short tick).
func WithTick(d time.Duration) SessionOption {
	return func(s *Session) { s.tick = d }
}

// WithTicks overrides the number of countdown ticks.
func WithTicks(n int) SessionOption {
	return func(s *Session) { s.total = n }
}

// WithAutoCommitThreshold overrides the auto-commit confidence threshold.
func WithAutoCommitThreshold(n int) SessionOption {
	return func(s *Session) { s.threshold = n }
}

// NewSession creates an empty session.
func NewSession(commit CommitFunc, log zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		commit:    commit,
		log:       log,
		state:     StateEmpty,
		tick:      time.Second,
		total:     3,
		threshold: DefaultAutoCommitThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDraft installs a new draft, replacing any previous one and cancelling
// any running countdown. An oracle draft at or above the threshold moves
// straight to COUNTDOWN; heuristic drafts never auto-commit, regardless of
// confidence. A nil draft clears the session.
func (s *Session) SetDraft(d *Draft) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()

	if d == nil {
		s.draft = nil
		s.state = StateEmpty
		return s.state
	}

	s.draft = d
	s.state = StateDrafted

	if d.Provenance == ProvenanceOracle && d.Confidence >= s.threshold {
		s.state = StateCountdown
		s.ticksLeft = s.total
		s.armTimerLocked()
	}
	return s.state
}

// AttachCategory attaches resolver output to the live draft.
func (s *Session) AttachCategory(categoryID, suggestion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != nil {
		s.draft.CategoryID = categoryID
		s.draft.CategorySuggestion = suggestion
	}
}

// AttachAccount pins the live draft to an account.
func (s *Session) AttachAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != nil {
		s.draft.AccountID = accountID
	}
}

// Hold cancels a running countdown and returns the draft to DRAFTED for
// manual review. It reports whether a countdown was actually interrupted.
func (s *Session) Hold() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCountdown {
		return false
	}
	s.cancelTimerLocked()
	s.state = StateDrafted
	return true
}

// Approve commits the live draft regardless of confidence. On failure the
// draft is kept in DRAFTED so the user can retry or edit.
func (s *Session) Approve(ctx context.Context) error {
	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return ErrNoDraft
	}
	draft := s.draft
	s.cancelTimerLocked()
	s.draft = nil
	s.state = StateEmpty
	gen := s.gen
	s.mu.Unlock()

	if err := s.commit(ctx, draft); err != nil {
		s.restoreDraft(gen, draft)
		return err
	}
	return nil
}

// Reset discards the draft and returns to EMPTY.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.draft = nil
	s.state = StateEmpty
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns the live draft, or nil.
func (s *Session) Draft() *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// CountdownRemaining returns the ticks left before auto-commit, or zero
// when no countdown is running.
func (s *Session) CountdownRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCountdown {
		return 0
	}
	return s.ticksLeft
}

// cancelTimerLocked invalidates any scheduled tick. Bumping the generation
// is what guarantees a timer that already fired but has not yet taken the
// lock becomes a no-op.
func (s *Session) cancelTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.ticksLeft = 0
}

func (s *Session) armTimerLocked() {
	gen := s.gen
	s.timer = time.AfterFunc(s.tick, func() { s.onTick(gen) })
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateCountdown {
		s.mu.Unlock()
		return
	}

	s.ticksLeft--
	if s.ticksLeft > 0 {
		s.armTimerLocked()
		s.mu.Unlock()
		return
	}

	// Countdown reached zero uninterrupted: commit.
	draft := s.draft
	s.cancelTimerLocked()
	s.draft = nil
	s.state = StateEmpty
	cur := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.commit(ctx, draft); err != nil {
		s.log.Error().Err(err).Msg("Auto-commit failed, draft returned for manual review")
		s.restoreDraft(cur, draft)
		return
	}
	s.log.Info().Str("bank", draft.Bank).Msg("Draft auto-committed")
}

// restoreDraft puts a draft back in DRAFTED after a failed commit, unless
// the user already started something new in the meantime.
func (s *Session) restoreDraft(gen uint64, draft *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.state == StateEmpty {
		s.draft = draft
		s.state = StateDrafted
	}
}
