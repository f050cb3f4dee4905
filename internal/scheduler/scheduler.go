// Package scheduler owns the recurring-execution policy: draw a random
// interval, fire the job once it is due, and on failure throw the pending
// registration away and build a fresh one instead of retrying.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/example/earworm-scheduler/internal/earworm"
)

// DefaultTick is the supervisory poll cadence. Runs may lag their drawn
// interval by up to this much; the slack is intentional.
const DefaultTick = 59 * time.Second

// JobRunner is what the scheduler drives, one invocation per due tick.
type JobRunner interface {
	Run(ctx context.Context) earworm.RunOutcome
}

// Scheduler polls for due work on a fixed cadence and invokes the runner
// synchronously, so a new run can never start while one is outstanding.
type Scheduler struct {
	Runner JobRunner

	// interval bounds in whole minutes, 0 < Lower <= Upper
	Lower int
	Upper int

	Tick time.Duration
	Log  *zap.SugaredLogger

	// test seams
	now  func() time.Time
	intn func(n int) int

	mu    sync.Mutex
	state registration

	// cumulative counters, kept outside the registration so a rebuild
	// doesn't erase them
	draws    int
	rebuilds int

	lastRunAt   time.Time
	lastOutcome *earworm.RunOutcome
}

// registration is the live "next run at T" state. It is discarded and
// recreated wholesale on the failure path.
type registration struct {
	nextRunAt time.Time
}

// Snapshot is a read-only view of the schedule for logs and the status
// page.
type Snapshot struct {
	NextRunAt   time.Time
	LastRunAt   time.Time
	LastOutcome *earworm.RunOutcome
	Draws       int
	Rebuilds    int
}

// Run loops until ctx is cancelled. The only errors it returns are a bad
// configuration up front and ctx.Err() on shutdown; job failures never
// escape the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Lower < 1 || s.Lower > s.Upper {
		return errors.Newf("scheduler interval bounds must satisfy 0 < lower <= upper (got %d..%d)", s.Lower, s.Upper)
	}

	s.mu.Lock()
	s.arm(s.timeNow())
	s.mu.Unlock()

	t := time.NewTicker(s.tickInterval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick runs the job if it is due, then re-arms the schedule according to
// the outcome. Synchronous on purpose: the next interval is only drawn
// after the current run has returned.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.timeNow()

	s.mu.Lock()
	due := !now.Before(s.state.nextRunAt)
	s.mu.Unlock()
	if !due {
		return
	}

	outcome := s.Runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunAt = now
	s.lastOutcome = &outcome

	if outcome.Kind == earworm.OutcomeFailed {
		s.log().Errorw("run failed, rebuilding schedule", "error", outcome.Err)
		s.rebuild(s.timeNow())
		return
	}
	s.log().Infow("run finished", "outcome", outcome.Kind.String())
	s.arm(s.timeNow())
}

// arm draws a fresh random interval and moves the registration forward.
// Caller holds the lock.
func (s *Scheduler) arm(now time.Time) {
	interval := s.drawInterval()
	s.state.nextRunAt = now.Add(interval)
	s.draws++
	s.log().Infow("next run scheduled", "interval", interval, "at", s.state.nextRunAt)
}

// rebuild discards the pending registration and creates a new one from
// scratch. This is the sole failure-recovery mechanism: it guarantees a
// fresh draw after an error rather than carrying any stale timer state
// into the next attempt. Caller holds the lock.
func (s *Scheduler) rebuild(now time.Time) {
	s.state = registration{}
	s.rebuilds++
	s.arm(now)
}

// drawInterval picks a uniform random whole-minute interval in
// [Lower, Upper].
func (s *Scheduler) drawInterval() time.Duration {
	minutes := s.Lower + s.randIntn(s.Upper-s.Lower+1)
	return time.Duration(minutes) * time.Minute
}

// Status returns the current schedule state.
func (s *Scheduler) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		NextRunAt:   s.state.nextRunAt,
		LastRunAt:   s.lastRunAt,
		LastOutcome: s.lastOutcome,
		Draws:       s.draws,
		Rebuilds:    s.rebuilds,
	}
}

func (s *Scheduler) tickInterval() time.Duration {
	if s.Tick > 0 {
		return s.Tick
	}
	return DefaultTick
}

func (s *Scheduler) timeNow() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scheduler) randIntn(n int) int {
	if s.intn != nil {
		return s.intn(n)
	}
	return rand.Intn(n)
}

func (s *Scheduler) log() *zap.SugaredLogger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop().Sugar()
}
