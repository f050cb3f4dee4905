package earworm

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a run waits after submission before
// fetching delivery status. The status is not guaranteed final by then;
// the fetch is best-effort either way.
const DefaultSettleDelay = 2 * time.Second

// Runner drives one end-to-end run. Collaborators and the recipient are
// fixed at startup and shared by every run; the zero-value test hooks
// fall back to the real clock.
type Runner struct {
	Source    SongSource
	Resolver  ReferenceResolver
	Shortener LinkShortener
	Sender    MessageSender

	Recipient   string
	SettleDelay time.Duration

	// IgnoreGate skips the availability check. Manual sends only; the
	// scheduler never sets this.
	IgnoreGate bool

	Log *zap.SugaredLogger

	// test seams
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// Run executes a single run and reports how it ended. Collaborator errors
// abort the run; there is no in-run retry, since transient provider trouble is
// better served by the next scheduled tick.
func (r *Runner) Run(ctx context.Context) (out RunOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Failed(errors.Newf("run panicked: %v", p))
		}
	}()

	if !r.IgnoreGate && !IsAvailable(r.timeNow()) {
		r.log().Infow("run skipped", "reason", "outside availability window")
		return Skipped("outside availability window")
	}

	song, err := r.Source.PickRandom(ctx)
	if err != nil {
		return Failed(err)
	}
	r.log().Infow("earworm picked", "artist", song.Artist, "title", song.Title)

	refURL, err := r.Resolver.Resolve(ctx, song.Artist, song.Title)
	if err != nil {
		return Failed(err)
	}
	r.log().Infow("lyrics reference resolved", "artist", song.Artist, "title", song.Title, "url", refURL)

	shortURL, err := r.Shortener.Shorten(ctx, refURL)
	if err != nil {
		return Failed(err)
	}
	r.log().Debugw("link shortened", "long_url", refURL, "short_url", shortURL)

	body := Compose(song.Snippet, shortURL)

	handle, err := r.Sender.Send(ctx, r.Recipient, body)
	if err != nil {
		return Failed(err)
	}

	// The message was accepted for delivery; from here on the run counts
	// as sent no matter what the status fetch says.
	r.wait(ctx, r.settleDelay())

	st, err := r.Sender.FetchStatus(ctx, handle)
	if err != nil {
		r.log().Warnw("delivery status fetch failed", "handle", handle, "error", err)
		return Sent("accepted")
	}
	if st.ErrorCode != "" || st.ErrorMessage != "" {
		r.log().Warnw("provider reported delivery error",
			"status", st.Status,
			"error_code", st.ErrorCode,
			"error_message", st.ErrorMessage)
	} else {
		r.log().Infow("message sent", "status", st.Status)
	}
	return Sent(st.Status)
}

func (r *Runner) timeNow() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) settleDelay() time.Duration {
	if r.SettleDelay > 0 {
		return r.SettleDelay
	}
	return DefaultSettleDelay
}

func (r *Runner) wait(ctx context.Context, d time.Duration) {
	if r.sleep != nil {
		r.sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *Runner) log() *zap.SugaredLogger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop().Sugar()
}
