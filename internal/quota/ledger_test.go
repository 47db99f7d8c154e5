package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-swipe/internal/domain"
)

var freePlan = Plan{Tier: "free", SwipeLimit: 5, SuperlikeAllotment: 1}

func TestDayOf_UsesLocation(t *testing.T) {
	ts := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	assert.Equal(t, Day("2026-03-01"), DayOf(ts, time.UTC))
	assert.Equal(t, Day("2026-03-02"), DayOf(ts, tokyo))
	assert.Equal(t, Day("2026-03-01"), DayOf(ts, nil))
}

func TestLedger_SwipeLimitReached(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 5, SuperlikesAvailable: 1}, freePlan)

	assert.False(t, l.CanAct("2026-03-01", domain.KindSwipe))
	err := l.Consume("2026-03-01", domain.KindSwipe)

	var qe *ExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.KindSwipe, qe.Kind)
	assert.ErrorIs(t, err, ErrExceeded)
	assert.Equal(t, 5, l.Snapshot().SwipesUsed)
}

func TestLedger_CountersAreIndependent(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 1, SuperlikesAvailable: 0}, freePlan)

	assert.False(t, l.CanAct("2026-03-01", domain.KindSuperlike))
	assert.True(t, l.CanAct("2026-03-01", domain.KindSwipe))

	l = NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 5, SuperlikesAvailable: 2}, freePlan)
	assert.False(t, l.CanAct("2026-03-01", domain.KindSwipe))
	assert.True(t, l.CanAct("2026-03-01", domain.KindSuperlike))
}

func TestLedger_UnlimitedSwipes(t *testing.T) {
	plan := Plan{Tier: "plus", SwipeLimit: Unlimited, SuperlikeAllotment: 0}
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: Unlimited}, plan)

	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Consume("2026-03-01", domain.KindSwipe))
	}
	assert.Equal(t, 1000, l.Snapshot().SwipesUsed)
	assert.False(t, l.CanAct("2026-03-01", domain.KindSuperlike), "unlimited swipes do not imply superlikes")
}

func TestLedger_LazyResetIsIdempotent(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 5, SuperlikesAvailable: 0}, freePlan)

	assert.True(t, l.CanAct("2026-03-02", domain.KindSwipe))
	first := l.Snapshot()
	assert.Equal(t, Day("2026-03-02"), first.Date)
	assert.Equal(t, 0, first.SwipesUsed)
	assert.Equal(t, 1, first.SuperlikesAvailable)

	require.NoError(t, l.Consume("2026-03-02", domain.KindSwipe))
	require.NoError(t, l.Consume("2026-03-02", domain.KindSuperlike))

	for i := 0; i < 10; i++ {
		l.CanAct("2026-03-02", domain.KindSwipe)
		l.CanAct("2026-03-02", domain.KindSuperlike)
	}
	after := l.Snapshot()
	assert.Equal(t, 1, after.SwipesUsed)
	assert.Equal(t, 0, after.SuperlikesAvailable)
}

func TestLedger_ResetOnlyMovesForward(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 0, SuperlikesAvailable: 1}, freePlan)

	require.NoError(t, l.Consume("2026-03-02", domain.KindSwipe))
	require.NoError(t, l.Consume("2026-03-02", domain.KindSwipe))

	// a caller that read the clock before midnight
	require.NoError(t, l.Consume("2026-03-01", domain.KindSwipe))

	st := l.Snapshot()
	assert.Equal(t, Day("2026-03-02"), st.Date)
	assert.Equal(t, 3, st.SwipesUsed)
}

func TestState_ResetForIgnoresEarlierDay(t *testing.T) {
	s := State{Date: "2026-03-02", SwipeLimit: 50, SwipesUsed: 7}
	assert.False(t, s.ResetFor("2026-03-01", freePlan))
	assert.Equal(t, 7, s.SwipesUsed)
	assert.True(t, s.ResetFor("2026-03-03", freePlan))
	assert.Equal(t, 0, s.SwipesUsed)
}

func TestLedger_ResetKeepsPurchasedSuperlikes(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SuperlikesAvailable: 7}, freePlan)
	st := l.Read("2026-03-02")
	assert.Equal(t, 7, st.SuperlikesAvailable)
}

func TestLedger_RestoreIsInverseOfConsume(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 2, SuperlikesAvailable: 1}, freePlan)
	before := l.Snapshot()

	require.NoError(t, l.Consume("2026-03-01", domain.KindSwipe))
	require.NoError(t, l.Consume("2026-03-01", domain.KindSuperlike))
	assert.True(t, l.Restore("2026-03-01", domain.KindSwipe, "2026-03-01"))
	assert.True(t, l.Restore("2026-03-01", domain.KindSuperlike, "2026-03-01"))

	assert.Equal(t, before, l.Snapshot())
}

func TestLedger_RestoreNeverPassesCaps(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 0, SuperlikesAvailable: 1}, freePlan)

	assert.False(t, l.Restore("2026-03-01", domain.KindSwipe, "2026-03-01"))
	assert.False(t, l.Restore("2026-03-01", domain.KindSuperlike, "2026-03-01"))

	st := l.Snapshot()
	assert.Equal(t, 0, st.SwipesUsed)
	assert.Equal(t, 1, st.SuperlikesAvailable)
}

func TestLedger_RestoreSkipsPreviousDay(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 4}, freePlan)
	require.NoError(t, l.Consume("2026-03-01", domain.KindSwipe))

	// day rolls over, then the user undoes yesterday's swipe
	require.NoError(t, l.Consume("2026-03-02", domain.KindSwipe))
	assert.False(t, l.Restore("2026-03-02", domain.KindSwipe, "2026-03-01"))
	assert.Equal(t, 1, l.Snapshot().SwipesUsed)
}

func TestLedger_Exhaust(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 5, SwipesUsed: 1, SuperlikesAvailable: 3}, freePlan)

	l.Exhaust("2026-03-01", domain.KindSwipe)
	l.Exhaust("2026-03-01", domain.KindSuperlike)

	st := l.Snapshot()
	assert.Equal(t, 5, st.SwipesUsed)
	assert.Equal(t, 0, st.SuperlikesAvailable)
	assert.NoError(t, st.Validate())
}

func TestLedger_InvariantHoldsUnderRepeatedConsume(t *testing.T) {
	l := NewLedger(State{Date: "2026-03-01", SwipeLimit: 3}, freePlan)
	for i := 0; i < 10; i++ {
		_ = l.Consume("2026-03-01", domain.KindSwipe)
		require.NoError(t, l.Snapshot().Validate())
	}
	assert.Equal(t, 3, l.Snapshot().SwipesUsed)
}
