package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/logger"
)

// fakeFetcher answers from a scripted list of responses; the last response
// repeats once the script runs out.
type fakeFetcher struct {
	mu       sync.Mutex
	script   []fetchResult
	calls    int
	excludes [][]string
	gate     chan struct{}
}

type fetchResult struct {
	profiles []domain.Profile
	err      error
}

func (f *fakeFetcher) FetchCandidates(ctx context.Context, exclude []string, limit int) ([]domain.Profile, error) {
	f.mu.Lock()
	idx := f.calls
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.calls++
	f.excludes = append(f.excludes, exclude)
	res := f.script[idx]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res.profiles, res.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func profiles(ids ...string) []domain.Profile {
	out := make([]domain.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Profile{ID: id})
	}
	return out
}

func newProvider(f Fetcher, threshold int) *Provider {
	return NewProvider(f, Options{
		BatchSize:    5,
		Threshold:    threshold,
		FetchTimeout: time.Second,
		Reserve:      profiles("r1", "r2"),
		Logger:       logger.Discard(),
	})
}

func waitIdle(t *testing.T, p *Provider) {
	t.Helper()
	require.Eventually(t, func() bool { return !p.Snapshot().Refilling }, time.Second, 5*time.Millisecond)
}

func TestProvider_LoadAndPeek(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{profiles: profiles("a", "b", "c")}}}
	p := newProvider(f, 0)

	require.NoError(t, p.Load(context.Background()))

	head, err := p.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", head.ID)
	assert.Equal(t, 3, p.Snapshot().Remaining)
	assert.False(t, p.Degraded())
}

func TestProvider_AdvanceAndRewind(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{profiles: profiles("a", "b", "c")}}}
	p := newProvider(f, 0)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	require.NoError(t, p.Advance(ctx))
	assert.Equal(t, 1, p.Cursor())
	assert.True(t, p.Decided("a"))

	require.NoError(t, p.Rewind())
	assert.Equal(t, 0, p.Cursor())
	assert.False(t, p.Decided("a"))

	assert.Error(t, p.Rewind(), "cannot rewind before the start")
	assert.Error(t, p.RewindTo(2), "cannot rewind forward")
}

func TestProvider_ThresholdTriggersBackgroundRefill(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{profiles: profiles("a", "b", "c")},
		{profiles: profiles("d", "e")},
	}}
	p := newProvider(f, 3)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	require.NoError(t, p.Advance(ctx)) // 2 left < 3
	waitIdle(t, p)

	assert.Equal(t, 2, f.Calls())
	assert.Equal(t, 4, p.Snapshot().Remaining)

	f.mu.Lock()
	exclude := f.excludes[1]
	f.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, exclude)
}

func TestProvider_RefillDoesNotBlockPeek(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{profiles: profiles("a", "b")},
		{profiles: profiles("c")},
	}}
	p := newProvider(f, 5)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()

	require.NoError(t, p.Advance(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		head, err := p.Peek(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "b", head.ID)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("peek blocked on background refill")
	}
	close(f.gate)
	waitIdle(t, p)
}

func TestProvider_DedupesDecidedAndQueued(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{profiles: profiles("a", "b")},
		{profiles: profiles("a", "b", "c", "c", "")},
	}}
	p := newProvider(f, 0)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))
	require.NoError(t, p.Advance(ctx))

	require.NoError(t, p.Load(ctx))
	snap := p.Snapshot()
	assert.Equal(t, 3, snap.Length, "a decided, b queued, c once, empty id dropped")
}

func TestProvider_ReserveOnFailureWhenEmpty(t *testing.T) {
	boom := errors.New("discovery down")
	f := &fakeFetcher{script: []fetchResult{
		{err: boom},
		{profiles: profiles("x", "y", "r1")},
	}}
	p := newProvider(f, 0)
	ctx := context.Background()

	err := p.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.True(t, p.Degraded())

	head, err := p.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", head.ID)

	// decide the first reserve profile, then discovery recovers
	require.NoError(t, p.Advance(ctx))
	require.NoError(t, p.Load(ctx))

	assert.False(t, p.Degraded())
	head, err = p.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", head.ID)
	snap := p.Snapshot()
	assert.Equal(t, 2, snap.Remaining, "r2 dropped, r1 already decided")
}

func TestProvider_FailureKeepsNonEmptyQueue(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{profiles: profiles("a", "b")},
		{err: errors.New("timeout")},
	}}
	p := newProvider(f, 0)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	assert.Error(t, p.Load(ctx))
	assert.False(t, p.Degraded())
	assert.Equal(t, 2, p.Snapshot().Remaining)
}

func TestProvider_PeekEmptyAfterExhaustedRefill(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{{profiles: nil}}}
	p := newProvider(f, 0)

	_, err := p.Peek(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 1, f.Calls())

	_, err = p.Peek(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 1, f.Calls(), "no refetch until an explicit refill")
}

func TestProvider_LaterRefillSupersedes(t *testing.T) {
	f := &fakeFetcher{script: []fetchResult{
		{profiles: profiles("old")},
		{profiles: profiles("new")},
	}}
	f.gate = make(chan struct{})
	p := newProvider(f, 0)
	ctx := context.Background()

	first := p.Refill(ctx)
	require.Eventually(t, func() bool { return f.Calls() == 1 }, time.Second, time.Millisecond)

	f.mu.Lock()
	f.gate = nil
	f.mu.Unlock()
	second := p.Refill(ctx)

	<-first
	<-second
	head, err := p.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", head.ID)
	assert.Equal(t, 1, p.Snapshot().Length)
}

func degradedQueues(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "swipe_queues_degraded" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("swipe_queues_degraded not registered")
	return 0
}

func TestProvider_DegradedGaugeTracksEachQueue(t *testing.T) {
	ctx := context.Background()
	before := degradedQueues(t)

	down := &fakeFetcher{script: []fetchResult{{err: errors.New("discovery down")}}}
	a := newProvider(down, 0)
	b := newProvider(down, 0)
	require.Error(t, a.Load(ctx))
	require.Error(t, b.Load(ctx))
	assert.Equal(t, before+2, degradedQueues(t))

	// a second failure on an already degraded queue is not counted twice
	require.NoError(t, a.Advance(ctx))
	require.NoError(t, a.Advance(ctx))
	require.Error(t, a.Load(ctx))
	assert.Equal(t, before+2, degradedQueues(t))

	a.Close()
	a.Close()
	assert.Equal(t, before+1, degradedQueues(t))
	b.Close()
	assert.Equal(t, before, degradedQueues(t))
}
