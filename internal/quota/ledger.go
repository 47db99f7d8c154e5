// Package quota tracks per-account daily swipe and superlike allowances.
//
// The daily reset is lazy: every read compares the stored reset date with the
// caller's notion of "today" (computed in the account's time zone) and resets
// at most once per day.
package quota

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oggyb/muzz-swipe/internal/domain"
)

// ErrExceeded matches every *ExceededError.
var ErrExceeded = errors.New("quota exceeded")

// ExceededError reports which counter ran dry.
type ExceededError struct {
	Kind domain.Kind
}

func (e *ExceededError) Error() string { return fmt.Sprintf("quota exceeded: %s", e.Kind) }

func (e *ExceededError) Is(target error) bool { return target == ErrExceeded }

// Day is a calendar date in an account's time zone, formatted 2006-01-02.
type Day string

const dayLayout = "2006-01-02"

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(dayLayout))
}

// State is the cached quota of one account.
type State struct {
	Date                Day
	PlanTier            string
	SwipesUsed          int
	SwipeLimit          int
	SuperlikesAvailable int
}

// Unlimited reports whether the swipe counter is uncapped.
func (s State) Unlimited() bool { return s.SwipeLimit == Unlimited }

// Validate checks the state invariants.
func (s State) Validate() error {
	if s.SwipeLimit < Unlimited {
		return fmt.Errorf("invalid swipe limit %d", s.SwipeLimit)
	}
	if !s.Unlimited() && s.SwipesUsed > s.SwipeLimit {
		return fmt.Errorf("swipes used %d exceeds limit %d", s.SwipesUsed, s.SwipeLimit)
	}
	if s.SwipesUsed < 0 || s.SuperlikesAvailable < 0 {
		return fmt.Errorf("negative counter")
	}
	return nil
}

// ResetFor applies the daily reset when today is later than the stored date.
// It returns false, leaving s untouched, when the reset already happened
// today or when today is an earlier day than the one stored.
//
// Superlikes are topped up to the plan allotment, never lowered: credits
// above the allotment survive the reset.
func (s *State) ResetFor(today Day, plan Plan) bool {
	// days are ISO dates, so string order is calendar order
	if today <= s.Date {
		return false
	}
	s.Date = today
	s.SwipesUsed = 0
	s.SwipeLimit = plan.SwipeLimit
	if s.SuperlikesAvailable < plan.SuperlikeAllotment {
		s.SuperlikesAvailable = plan.SuperlikeAllotment
	}
	return true
}

// HasHeadroom reports whether one more unit of k fits.
func (s State) HasHeadroom(k domain.Kind) bool {
	switch k {
	case domain.KindSuperlike:
		return s.SuperlikesAvailable > 0
	default:
		return s.Unlimited() || s.SwipesUsed < s.SwipeLimit
	}
}

// Ledger is the client-side cache of one account's quota. It gives fast,
// optimistic answers; the backend enforces the real limits.
type Ledger struct {
	mu           sync.Mutex
	state        State
	plan         Plan
	superlikeCap int
}

// NewLedger seeds a ledger from an account record.
func NewLedger(state State, plan Plan) *Ledger {
	l := &Ledger{}
	l.reconcile(state, plan)
	return l
}

// CanAct reports whether one unit of k may be spent today.
func (l *Ledger) CanAct(today Day, k domain.Kind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked(today)
	return l.state.HasHeadroom(k)
}

// Consume spends one unit of k. It re-validates headroom and returns an
// *ExceededError instead of overdrawing.
func (l *Ledger) Consume(today Day, k domain.Kind) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked(today)
	if !l.state.HasHeadroom(k) {
		return &ExceededError{Kind: k}
	}
	switch k {
	case domain.KindSuperlike:
		l.state.SuperlikesAvailable--
	default:
		l.state.SwipesUsed++
	}
	return nil
}

// Restore gives back one unit of k that was consumed on consumedOn. A unit
// spent on an earlier quota day is not refunded into today's allowance, and
// counters never move past their caps. It reports whether anything changed.
func (l *Ledger) Restore(today Day, k domain.Kind, consumedOn Day) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked(today)
	if consumedOn != l.state.Date {
		return false
	}
	switch k {
	case domain.KindSuperlike:
		if l.state.SuperlikesAvailable >= l.superlikeCap {
			return false
		}
		l.state.SuperlikesAvailable++
	default:
		if l.state.SwipesUsed == 0 {
			return false
		}
		l.state.SwipesUsed--
	}
	return true
}

// Exhaust marks k as spent for today. Used when the backend refuses a
// decision the cache still believed affordable.
func (l *Ledger) Exhaust(today Day, k domain.Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked(today)
	switch k {
	case domain.KindSuperlike:
		l.state.SuperlikesAvailable = 0
	default:
		if !l.state.Unlimited() {
			l.state.SwipesUsed = l.state.SwipeLimit
		}
	}
}

// Snapshot returns the cached state as-is, without applying a reset.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Read returns the state after applying the lazy reset for today.
func (l *Ledger) Read(today Day) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked(today)
	return l.state
}

// Reconcile replaces the cache with an authoritative account record.
func (l *Ledger) Reconcile(state State, plan Plan) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconcile(state, plan)
}

func (l *Ledger) reconcile(state State, plan Plan) {
	l.state = state
	l.plan = plan
	l.superlikeCap = max(state.SuperlikesAvailable, plan.SuperlikeAllotment)
}

func (l *Ledger) resetLocked(today Day) {
	if l.state.ResetFor(today, l.plan) {
		l.superlikeCap = max(l.state.SuperlikesAvailable, l.plan.SuperlikeAllotment)
	}
}
