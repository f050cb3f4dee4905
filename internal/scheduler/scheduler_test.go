package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/earworm-scheduler/internal/earworm"
)

type fakeRunner struct {
	outcome earworm.RunOutcome
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context) earworm.RunOutcome {
	f.calls++
	return f.outcome
}

func newScheduler(r JobRunner) (*Scheduler, *time.Time) {
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	s := &Scheduler{
		Runner: r,
		Lower:  90,
		Upper:  300,
	}
	s.now = func() time.Time { return now }
	return s, &now
}

func TestDrawIntervalWithinBounds(t *testing.T) {
	s := &Scheduler{Lower: 90, Upper: 300}
	for i := 0; i < 1000; i++ {
		d := s.drawInterval()
		assert.GreaterOrEqual(t, d, 90*time.Minute)
		assert.LessOrEqual(t, d, 300*time.Minute)
		assert.Zero(t, d%time.Minute)
	}
}

func TestDrawIntervalDegenerateBounds(t *testing.T) {
	s := &Scheduler{Lower: 5, Upper: 5}
	for i := 0; i < 50; i++ {
		assert.Equal(t, 5*time.Minute, s.drawInterval())
	}
}

func TestRunRejectsBadBounds(t *testing.T) {
	for _, tc := range []struct{ lower, upper int }{
		{0, 10},
		{-1, 10},
		{20, 10},
	} {
		s := &Scheduler{Runner: &fakeRunner{}, Lower: tc.lower, Upper: tc.upper}
		err := s.Run(context.Background())
		require.Error(t, err, "bounds %d..%d", tc.lower, tc.upper)
	}
}

func TestTickNotDue(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Sent("delivered")}
	s, _ := newScheduler(r)

	s.arm(s.timeNow())
	s.tick(context.Background())

	assert.Zero(t, r.calls)
}

func TestTickRunsWhenDueAndRearms(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Sent("delivered")}
	s, now := newScheduler(r)
	s.intn = func(n int) int { return 0 } // always draw Lower

	s.arm(*now)
	before := s.Status()
	*now = now.Add(91 * time.Minute)

	s.tick(context.Background())

	st := s.Status()
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, before.Draws+1, st.Draws)
	assert.Zero(t, st.Rebuilds)
	assert.Equal(t, now.Add(90*time.Minute), st.NextRunAt)
	require.NotNil(t, st.LastOutcome)
	assert.Equal(t, earworm.OutcomeSent, st.LastOutcome.Kind)
}

func TestTickSkippedRearmsNormally(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Skipped("outside availability window")}
	s, now := newScheduler(r)

	s.arm(*now)
	*now = now.Add(301 * time.Minute)

	s.tick(context.Background())

	st := s.Status()
	assert.Equal(t, 1, r.calls)
	assert.Zero(t, st.Rebuilds, "a skipped run is not a failure")
	assert.True(t, st.NextRunAt.After(*now))
}

func TestFailureRebuildsSchedule(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Failed(errors.New("genius is down"))}
	s, now := newScheduler(r)

	draws := []int{0, 7} // fresh draw on the rebuild path
	s.intn = func(n int) int {
		d := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return d
	}

	s.arm(*now)
	*now = now.Add(91 * time.Minute)

	s.tick(context.Background())

	st := s.Status()
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 1, st.Rebuilds)
	assert.Equal(t, 2, st.Draws)
	// the rebuilt registration used the fresh draw, not the stale one
	assert.Equal(t, now.Add(97*time.Minute), st.NextRunAt)
	require.NotNil(t, st.LastOutcome)
	assert.Equal(t, earworm.OutcomeFailed, st.LastOutcome.Kind)

	// and the failed run is not re-invoked on the next tick
	s.tick(context.Background())
	assert.Equal(t, 1, r.calls)
}

func TestFailureDoesNotStopTheLoop(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Failed(errors.New("boom"))}
	s, now := newScheduler(r)
	s.intn = func(n int) int { return 0 }

	s.arm(*now)
	for i := 0; i < 3; i++ {
		*now = now.Add(91 * time.Minute)
		s.tick(context.Background())
	}

	st := s.Status()
	assert.Equal(t, 3, r.calls)
	assert.Equal(t, 3, st.Rebuilds)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := &fakeRunner{outcome: earworm.Sent("delivered")}
	s := &Scheduler{Runner: r, Lower: 1, Upper: 1, Tick: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
