package swipe

import (
	"context"
	"errors"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/queue"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

// Backend refusals a DecisionStore reports; any other error is treated as a
// retryable network failure.
var (
	ErrDecisionConflict = errors.New("decision already recorded for this profile")
	ErrQuotaRejected    = errors.New("quota rejected by backend")
)

// Discovery supplies candidate profiles.
type Discovery = queue.Fetcher

// Receipt is the backend's answer to a decision write.
type Receipt struct {
	Accepted bool
	Matched  bool
}

// DecisionStore persists decisions. Calls with the same idempotency key must
// be safe to repeat.
type DecisionStore interface {
	RecordDecision(ctx context.Context, profileID string, d domain.Direction, idempotencyKey string) (Receipt, error)
}

// Account is the authoritative quota record of the session's user.
type Account struct {
	Quota    quota.State
	TimeZone string
}

// AccountSource seeds and reconciles the local quota ledger.
type AccountSource interface {
	LoadAccount(ctx context.Context) (Account, error)
}
