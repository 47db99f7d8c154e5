// Package queue maintains the ordered, deduplicated stream of candidate
// profiles shown to one user session.
package queue

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
)

var (
	// ErrEmpty means the cursor reached the end and a refill produced nothing.
	ErrEmpty = errors.New("queue empty")
	// ErrSuperseded is reported to waiters of a refill replaced by a newer one.
	ErrSuperseded = errors.New("refill superseded")
)

// Fetcher is the Discovery source. It may return fewer than limit profiles
// and must never return an id from exclude.
type Fetcher interface {
	FetchCandidates(ctx context.Context, exclude []string, limit int) ([]domain.Profile, error)
}

type Options struct {
	BatchSize    int
	Threshold    int
	FetchTimeout time.Duration
	// Reserve is shown, with Degraded raised, when a fetch fails on an empty queue.
	Reserve []domain.Profile
	Logger  *slog.Logger
}

func (o *Options) withDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.Threshold < 0 {
		o.Threshold = 0
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logger.Named("queue")
	}
}

// Snapshot is a point-in-time view of the queue.
type Snapshot struct {
	Cursor    int
	Length    int
	Remaining int
	Decided   int
	Degraded  bool
	Refilling bool
}

type refill struct {
	gen    uint64
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Provider owns the queue state. All methods are safe for concurrent use.
type Provider struct {
	fetcher Fetcher
	opts    Options
	log     *slog.Logger

	mu        sync.Mutex
	items     []domain.Profile
	cursor    int
	decided   map[string]struct{}
	degraded  bool
	exhausted bool
	gen       uint64
	inflight  *refill
}

func NewProvider(f Fetcher, opts Options) *Provider {
	opts.withDefaults()
	return &Provider{
		fetcher: f,
		opts:    opts,
		log:     opts.Logger,
		decided: make(map[string]struct{}),
	}
}

// Refill starts a background fetch and returns a channel closed when it
// settles. A later Refill supersedes this one: its result is discarded.
func (p *Provider) Refill(ctx context.Context) <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx).done
}

// Load runs a refill and waits for it. The returned error is the fetch
// failure, if any; the reserve fallback may still have populated the queue.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	r := p.startLocked(ctx)
	p.mu.Unlock()

	select {
	case <-r.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Head returns the profile at the cursor without waiting for a refill.
func (p *Provider) Head() (domain.Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor < len(p.items) {
		return p.items[p.cursor], true
	}
	return domain.Profile{}, false
}

// Peek returns the profile at the cursor. When the queue is drained it waits
// for a refill (starting one if needed) and returns ErrEmpty only when that
// refill produced nothing.
func (p *Provider) Peek(ctx context.Context) (domain.Profile, error) {
	for {
		p.mu.Lock()
		if p.cursor < len(p.items) {
			head := p.items[p.cursor]
			p.mu.Unlock()
			return head, nil
		}
		if p.inflight == nil {
			if p.exhausted {
				p.mu.Unlock()
				return domain.Profile{}, ErrEmpty
			}
			p.startLocked(ctx)
		}
		done := p.inflight.done
		p.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return domain.Profile{}, ctx.Err()
		}
	}
}

// Advance moves past the head, recording it as decided, and triggers a
// background refill when fewer than Threshold profiles remain.
func (p *Provider) Advance(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor >= len(p.items) {
		return fmt.Errorf("advance past end of queue")
	}
	p.decided[p.items[p.cursor].ID] = struct{}{}
	p.cursor++

	if len(p.items)-p.cursor < p.opts.Threshold {
		p.startLocked(ctx)
	}
	return nil
}

// Rewind moves the cursor back by one and forgets that profile's decision.
func (p *Provider) Rewind() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rewindToLocked(p.cursor - 1)
}

// RewindTo restores the cursor to an earlier position.
func (p *Provider) RewindTo(pos int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rewindToLocked(pos)
}

func (p *Provider) rewindToLocked(pos int) error {
	if pos < 0 || pos > p.cursor {
		return fmt.Errorf("rewind to %d: cursor is %d", pos, p.cursor)
	}
	for p.cursor > pos {
		p.cursor--
		delete(p.decided, p.items[p.cursor].ID)
	}
	return nil
}

func (p *Provider) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Degraded reports whether the reserve set is being shown.
func (p *Provider) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// Decided reports whether id was decided in this session.
func (p *Provider) Decided(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.decided[id]
	return ok
}

func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Cursor:    p.cursor,
		Length:    len(p.items),
		Remaining: len(p.items) - p.cursor,
		Decided:   len(p.decided),
		Degraded:  p.degraded,
		Refilling: p.inflight != nil,
	}
}

// Close abandons any in-flight refill and releases the degraded gauge. The
// provider must not be used afterwards.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	if p.inflight != nil {
		p.inflight.cancel()
		p.inflight = nil
	}
	if p.degraded {
		p.degraded = false
		metrics.QueueRecovered()
	}
}

// startLocked supersedes any in-flight refill and launches a new one.
func (p *Provider) startLocked(ctx context.Context) *refill {
	if p.inflight != nil {
		p.inflight.cancel()
		metrics.QueueRefill("superseded")
	}

	p.gen++
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.FetchTimeout)
	r := &refill{gen: p.gen, done: make(chan struct{}), cancel: cancel}
	p.inflight = r
	p.exhausted = false

	exclude := p.excludeLocked()
	go p.run(fctx, r, exclude)
	return r
}

func (p *Provider) run(ctx context.Context, r *refill, exclude []string) {
	defer close(r.done)
	defer r.cancel()

	fresh, err := p.fetcher.FetchCandidates(ctx, exclude, p.opts.BatchSize)

	p.mu.Lock()
	defer p.mu.Unlock()

	r.err = err
	if r.gen != p.gen {
		r.err = ErrSuperseded
		p.log.Debug("refill superseded", "gen", r.gen, "current", p.gen)
		return
	}
	p.inflight = nil

	if err != nil {
		p.failLocked(err)
		return
	}
	added := p.mergeLocked(fresh)
	metrics.QueueRefill("ok")
	p.log.Debug("refill merged", "fetched", len(fresh), "added", added, "remaining", len(p.items)-p.cursor)
}

// mergeLocked appends fresh profiles that are neither decided nor queued.
// A successful fetch ends degraded mode and drops unseen reserve profiles.
func (p *Provider) mergeLocked(fresh []domain.Profile) int {
	if p.degraded {
		p.items = p.items[:p.cursor]
		p.degraded = false
		metrics.QueueRecovered()
		p.log.Info("discovery recovered, leaving degraded mode")
	}

	queued := p.pendingLocked()
	added := 0
	for _, pr := range fresh {
		if err := pr.Validate(); err != nil {
			p.log.Warn("dropping candidate", "err", err)
			continue
		}
		if _, ok := p.decided[pr.ID]; ok {
			continue
		}
		if _, ok := queued[pr.ID]; ok {
			continue
		}
		queued[pr.ID] = struct{}{}
		p.items = append(p.items, pr)
		added++
	}
	p.exhausted = p.cursor >= len(p.items)
	return added
}

// failLocked falls back to the reserve set, but only on an empty queue.
func (p *Provider) failLocked(err error) {
	if p.cursor < len(p.items) {
		metrics.QueueRefill("failed")
		p.log.Warn("refill failed, keeping current queue", "err", err, "remaining", len(p.items)-p.cursor)
		return
	}

	added := 0
	for _, pr := range p.opts.Reserve {
		if _, ok := p.decided[pr.ID]; ok {
			continue
		}
		p.items = append(p.items, pr)
		added++
	}
	if added > 0 {
		if !p.degraded {
			p.degraded = true
			metrics.QueueDegraded()
		}
		metrics.QueueRefill("reserve")
		p.log.Warn("discovery unavailable, serving reserve profiles", "err", err, "reserve", added)
	} else {
		metrics.QueueRefill("failed")
		p.log.Warn("discovery unavailable and reserve exhausted", "err", err)
	}
	p.exhausted = p.cursor >= len(p.items)
}

func (p *Provider) pendingLocked() map[string]struct{} {
	pending := make(map[string]struct{}, len(p.items)-p.cursor)
	for _, pr := range p.items[p.cursor:] {
		pending[pr.ID] = struct{}{}
	}
	return pending
}

func (p *Provider) excludeLocked() []string {
	exclude := make([]string, 0, len(p.decided)+len(p.items)-p.cursor)
	for id := range p.decided {
		exclude = append(exclude, id)
	}
	for _, pr := range p.items[p.cursor:] {
		if _, ok := p.decided[pr.ID]; !ok {
			exclude = append(exclude, pr.ID)
		}
	}
	return exclude
}
