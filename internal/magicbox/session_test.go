package magicbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// commitRecorder captures session commits for assertions.
type commitRecorder struct {
	mu      sync.Mutex
	commits []*Draft
	err     error
}

func (r *commitRecorder) commit(ctx context.Context, d *Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.commits = append(r.commits, d)
	return nil
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commits)
}

func oracleDraft(confidence int) *Draft {
	return &Draft{
		Amount:     decimal.NewFromInt(100),
		Kind:       ledger.KindExpense,
		Bank:       "HDFC",
		Confidence: confidence,
		Provenance: ProvenanceOracle,
		CommitKey:  "key-1",
	}
}

func newTestSession(rec *commitRecorder) *Session {
	return NewSession(rec.commit, zerolog.Nop(), WithTick(5*time.Millisecond), WithTicks(3))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSessionAutoCommit(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	if got := s.SetDraft(oracleDraft(85)); got != StateCountdown {
		t.Fatalf("SetDraft state = %q, want COUNTDOWN", got)
	}

	waitFor(t, func() bool { return rec.count() == 1 })

	if got := s.State(); got != StateEmpty {
		t.Errorf("State after auto-commit = %q, want EMPTY", got)
	}
	if s.Draft() != nil {
		t.Error("Draft after auto-commit should be nil")
	}
}

func TestSessionLowConfidenceStaysDrafted(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	if got := s.SetDraft(oracleDraft(79)); got != StateDrafted {
		t.Fatalf("SetDraft state = %q, want DRAFTED", got)
	}

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("commits = %d, want 0", rec.count())
	}
}

func TestSessionHeuristicNeverAutoCommits(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	d := oracleDraft(100)
	d.Provenance = ProvenanceHeuristic
	if got := s.SetDraft(d); got != StateDrafted {
		t.Fatalf("SetDraft state = %q, want DRAFTED", got)
	}

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("commits = %d, want 0", rec.count())
	}
}

func TestSessionHoldStopsCountdown(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	s.SetDraft(oracleDraft(90))
	if !s.Hold() {
		t.Fatal("Hold() = false, want true during countdown")
	}
	if got := s.State(); got != StateDrafted {
		t.Errorf("State after hold = %q, want DRAFTED", got)
	}

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("commits after hold = %d, want 0", rec.count())
	}

	if s.Hold() {
		t.Error("Hold() = true with no countdown running")
	}
}

func TestSessionReplaceCancelsCountdown(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	s.SetDraft(oracleDraft(95))
	replacement := oracleDraft(50)
	replacement.CommitKey = "key-2"
	s.SetDraft(replacement)

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("commits = %d, want 0 after replacement", rec.count())
	}
	if got := s.Draft().CommitKey; got != "key-2" {
		t.Errorf("live draft key = %q, want key-2", got)
	}
}

func TestSessionApprove(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	// Approve works below the auto-commit threshold.
	s.SetDraft(oracleDraft(20))
	if err := s.Approve(context.Background()); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("commits = %d, want 1", rec.count())
	}
	if got := s.State(); got != StateEmpty {
		t.Errorf("State after approve = %q, want EMPTY", got)
	}
}

func TestSessionApproveNoDraft(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	if err := s.Approve(context.Background()); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Approve() error = %v, want ErrNoDraft", err)
	}
}

func TestSessionApproveFailureRestoresDraft(t *testing.T) {
	rec := &commitRecorder{err: errors.New("store unavailable")}
	s := newTestSession(rec)

	s.SetDraft(oracleDraft(20))
	if err := s.Approve(context.Background()); err == nil {
		t.Fatal("Approve() error = nil, want commit failure")
	}

	if got := s.State(); got != StateDrafted {
		t.Errorf("State after failed approve = %q, want DRAFTED", got)
	}
	if s.Draft() == nil {
		t.Error("Draft should be restored after failed approve")
	}
}

func TestSessionReset(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(rec)

	s.SetDraft(oracleDraft(95))
	s.Reset()

	if got := s.State(); got != StateEmpty {
		t.Errorf("State after reset = %q, want EMPTY", got)
	}
	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("commits after reset = %d, want 0", rec.count())
	}
}
