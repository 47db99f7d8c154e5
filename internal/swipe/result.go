package swipe

import (
	"errors"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

// Rejection reasons. Every one of them leaves quota and queue untouched,
// except ErrPersistenceConflict which skips the stale profile.
var (
	ErrQuotaExceeded       = quota.ErrExceeded
	ErrStaleSubmission     = errors.New("submission does not match queue head")
	ErrInProgress          = errors.New("another decision is in flight")
	ErrNetworkFailure      = errors.New("decision could not be persisted")
	ErrPersistenceConflict = errors.New("profile already decided elsewhere")
	ErrNoHistory           = errors.New("nothing to undo")
	ErrInvalidDirection    = errors.New("unknown direction")
)

type Outcome int

const (
	OutcomeCommitted Outcome = iota + 1
	OutcomeReverted
	OutcomeRejected
	OutcomeNoHistory
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeReverted:
		return "reverted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNoHistory:
		return "no_history"
	default:
		return "unknown"
	}
}

// Result is what Submit and Undo hand back to the UI.
type Result struct {
	Outcome  Outcome
	Decision domain.Decision
	// Reason is set for OutcomeRejected; match it with errors.Is against the
	// Err* values above, or errors.As into *quota.ExceededError for the kind.
	Reason error
}

func committed(d domain.Decision) Result { return Result{Outcome: OutcomeCommitted, Decision: d} }

func reverted(d domain.Decision) Result { return Result{Outcome: OutcomeReverted, Decision: d} }

func rejected(reason error) Result { return Result{Outcome: OutcomeRejected, Reason: reason} }

func noHistory() Result { return Result{Outcome: OutcomeNoHistory, Reason: ErrNoHistory} }

// Err returns nil for Committed/Reverted and the reason otherwise.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeCommitted, OutcomeReverted:
		return nil
	}
	return r.Reason
}

// label is the metrics/log spelling of the result.
func (r Result) label() string {
	if r.Outcome != OutcomeRejected {
		return r.Outcome.String()
	}
	switch {
	case errors.Is(r.Reason, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(r.Reason, ErrStaleSubmission):
		return "stale"
	case errors.Is(r.Reason, ErrInvalidDirection):
		return "invalid_direction"
	case errors.Is(r.Reason, ErrInProgress):
		return "in_progress"
	case errors.Is(r.Reason, ErrPersistenceConflict):
		return "conflict"
	case errors.Is(r.Reason, ErrNetworkFailure):
		return "network_failure"
	default:
		return "rejected"
	}
}
