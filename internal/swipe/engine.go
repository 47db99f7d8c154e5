// Package swipe is the discovery and engagement engine for one user session.
//
// The engine owns the quota ledger, the profile queue and the undo stack, and
// serialises decisions: while one decision is being persisted the engine is
// in StateSubmitting and every other submit or undo is rejected with
// ErrInProgress. A decision's local effects (quota consumption, cursor
// advance, undo push) are applied together once the backend accepts it, or
// not at all.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/logger"
	"github.com/oggyb/muzz-swipe/internal/metrics"
	"github.com/oggyb/muzz-swipe/internal/queue"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/undo"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	if s == StateSubmitting {
		return "submitting"
	}
	return "idle"
}

type Config struct {
	// ActorID is the user this session decides for; it scopes idempotency keys.
	ActorID        string
	UndoDepth      int
	PersistTimeout time.Duration
	// Location is the fallback quota time zone when the account has none.
	Location    *time.Location
	Catalog     *quota.Catalog
	Queue       queue.Options
	EventBuffer int
	Clock       func() time.Time
	Logger      *slog.Logger
}

func (c *Config) withDefaults() {
	if c.UndoDepth <= 0 {
		c.UndoDepth = 5
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 5 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Catalog == nil {
		c.Catalog = quota.DefaultCatalog()
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = logger.Named("swipe")
	}
	if c.Queue.Logger == nil {
		c.Queue.Logger = c.Logger.With("subsystem", "queue")
	}
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	State     State
	Queue     queue.Snapshot
	Quota     quota.State
	UndoDepth int
}

type Engine struct {
	cfg      Config
	log      *slog.Logger
	store    DecisionStore
	accounts AccountSource

	queue  *queue.Provider
	ledger *quota.Ledger
	undo   *undo.Stack

	mu    sync.Mutex
	state State
	loc   *time.Location

	evMu   sync.Mutex
	events chan Event
	closed bool
}

func New(cfg Config, discovery Discovery, store DecisionStore, accounts AccountSource) *Engine {
	cfg.withDefaults()
	return &Engine{
		cfg:      cfg,
		log:      cfg.Logger.With("actor", cfg.ActorID),
		store:    store,
		accounts: accounts,
		queue:    queue.NewProvider(discovery, cfg.Queue),
		ledger:   quota.NewLedger(quota.State{}, quota.Plan{}),
		undo:     undo.NewStack(cfg.UndoDepth),
		loc:      cfg.Location,
		events:   make(chan Event, cfg.EventBuffer),
	}
}

// Start seeds the ledger from the account record and loads the first batch
// of candidates. A Discovery failure is not fatal: the queue falls back to
// its reserve set.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Reconcile(ctx); err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if err := e.queue.Load(ctx); err != nil {
		e.log.Warn("initial candidate load failed", "err", err, "degraded", e.queue.Degraded())
	}
	return nil
}

// Reconcile replaces the local quota cache with the backend's record.
func (e *Engine) Reconcile(ctx context.Context) error {
	acct, err := e.accounts.LoadAccount(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSubmitting {
		return ErrInProgress
	}
	if acct.TimeZone != "" {
		if loc, err := time.LoadLocation(acct.TimeZone); err == nil {
			e.loc = loc
		} else {
			e.log.Warn("unknown account time zone, using default", "tz", acct.TimeZone)
		}
	}
	e.ledger.Reconcile(acct.Quota, e.cfg.Catalog.Resolve(acct.Quota))
	e.log.Debug("quota reconciled", "tier", acct.Quota.PlanTier, "used", acct.Quota.SwipesUsed,
		"limit", acct.Quota.SwipeLimit, "superlikes", acct.Quota.SuperlikesAvailable)
	return nil
}

// Submit commits a decision on the profile at the head of the queue.
func (e *Engine) Submit(ctx context.Context, d domain.Direction, profileID string) Result {
	res := e.submit(ctx, d, profileID)

	label := string(d)
	if !d.Valid() {
		label = "invalid"
	}
	metrics.Decision(label, res.label())
	e.log.Debug("submit", "profile", profileID, "direction", d, "result", res.label(), "reason", res.Reason)
	e.publish(CommandSubmit, profileID, res)
	return res
}

func (e *Engine) submit(ctx context.Context, d domain.Direction, profileID string) Result {
	if !d.Valid() {
		return rejected(fmt.Errorf("%w %q", ErrInvalidDirection, d))
	}
	e.mu.Lock()
	if e.state == StateSubmitting {
		e.mu.Unlock()
		return rejected(ErrInProgress)
	}
	head, ok := e.queue.Head()
	if !ok || head.ID != profileID {
		e.mu.Unlock()
		return rejected(ErrStaleSubmission)
	}
	kind := d.Kind()
	today := e.todayLocked()
	if !e.ledger.CanAct(today, kind) {
		e.mu.Unlock()
		return rejected(&quota.ExceededError{Kind: kind})
	}
	cursorBefore := e.queue.Cursor()
	quotaBefore := e.ledger.Snapshot()
	e.state = StateSubmitting
	e.mu.Unlock()

	receipt, err := e.persist(ctx, d, profileID)

	e.mu.Lock()
	defer func() {
		e.state = StateIdle
		e.mu.Unlock()
	}()

	switch {
	case errors.Is(err, ErrDecisionConflict), err == nil && !receipt.Accepted:
		// Resolved elsewhere: skip it so the user is not stuck on it.
		if aerr := e.queue.Advance(ctx); aerr != nil {
			e.log.Error("advance after conflict", "err", aerr)
		}
		return rejected(ErrPersistenceConflict)
	case errors.Is(err, ErrQuotaRejected):
		e.ledger.Exhaust(today, kind)
		return rejected(&quota.ExceededError{Kind: kind})
	case err != nil:
		return rejected(fmt.Errorf("%w: %w", ErrNetworkFailure, err))
	}

	if cerr := e.ledger.Consume(today, kind); cerr != nil {
		// The backend accepted, so it had headroom; the cache is merely stale.
		e.log.Warn("local quota disagrees with backend", "err", cerr)
	}
	decision := domain.Decision{
		ProfileID:   profileID,
		Direction:   d,
		Matched:     receipt.Matched,
		CommittedAt: e.cfg.Clock(),
	}
	if e.undo.Push(undo.Entry{Decision: decision, CursorBefore: cursorBefore, QuotaBefore: quotaBefore}) {
		e.log.Debug("undo history full, oldest entry evicted")
	}
	if aerr := e.queue.Advance(ctx); aerr != nil {
		e.log.Error("advance after commit", "err", aerr)
	}
	return committed(decision)
}

// persist calls the backend with a bounded wait. A call that outlives the
// timeout may still land server-side; the idempotency key makes the retry safe.
func (e *Engine) persist(ctx context.Context, d domain.Direction, profileID string) (Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PersistTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := e.store.RecordDecision(ctx, profileID, d, domain.IdempotencyKey(e.cfg.ActorID, profileID, d))
	metrics.ObservePersist(time.Since(start))
	if err != nil && !errors.Is(err, ErrDecisionConflict) && !errors.Is(err, ErrQuotaRejected) {
		e.log.Error("persist decision failed", "profile", profileID, "direction", d, "err", err)
	}
	return receipt, err
}

// Undo reverses the local effects of the most recent committed decision. It
// does not retract the decision on the backend.
func (e *Engine) Undo(ctx context.Context) Result {
	res := e.undoLast()

	metrics.Undo(res.label())
	e.log.Debug("undo", "result", res.label(), "profile", res.Decision.ProfileID)
	e.publish(CommandUndo, res.Decision.ProfileID, res)
	return res
}

func (e *Engine) undoLast() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSubmitting {
		return rejected(ErrInProgress)
	}
	entry, ok := e.undo.Pop()
	if !ok {
		return noHistory()
	}
	if err := e.queue.RewindTo(entry.CursorBefore); err != nil {
		e.log.Error("rewind failed", "err", err, "cursor_before", entry.CursorBefore)
	}
	if !e.ledger.Restore(e.todayLocked(), entry.Decision.Direction.Kind(), entry.QuotaBefore.Date) {
		e.log.Debug("quota not restored", "consumed_on", entry.QuotaBefore.Date)
	}
	return reverted(entry.Decision)
}

// Peek returns the profile to present next; see queue.Provider.Peek.
func (e *Engine) Peek(ctx context.Context) (domain.Profile, error) {
	return e.queue.Peek(ctx)
}

// Refill asks Discovery for more candidates in the background.
func (e *Engine) Refill(ctx context.Context) <-chan struct{} {
	return e.queue.Refill(ctx)
}

// Degraded reports whether the queue is serving its reserve set.
func (e *Engine) Degraded() bool { return e.queue.Degraded() }

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:     e.state,
		Queue:     e.queue.Snapshot(),
		Quota:     e.ledger.Read(e.todayLocked()),
		UndoDepth: e.undo.Len(),
	}
}

func (e *Engine) todayLocked() quota.Day {
	return quota.DayOf(e.cfg.Clock(), e.loc)
}
