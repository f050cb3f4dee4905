package earworm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	song  Song
	err   error
	calls int
}

func (f *fakeSource) PickRandom(ctx context.Context) (Song, error) {
	f.calls++
	return f.song, f.err
}

type fakeResolver struct {
	url   string
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, artist, title string) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeShortener struct {
	url   string
	err   error
	calls int
}

func (f *fakeShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeSender struct {
	handle    MessageHandle
	sendErr   error
	status    DeliveryStatus
	statusErr error

	sentRecipient string
	sentBody      string
	sendCalls     int
	statusCalls   int
}

func (f *fakeSender) Send(ctx context.Context, recipient, body string) (MessageHandle, error) {
	f.sendCalls++
	f.sentRecipient = recipient
	f.sentBody = body
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.handle, nil
}

func (f *fakeSender) FetchStatus(ctx context.Context, handle MessageHandle) (DeliveryStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

type fixture struct {
	source    *fakeSource
	resolver  *fakeResolver
	shortener *fakeShortener
	sender    *fakeSender
	runner    *Runner
	slept     []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:    &fakeSource{song: Song{Artist: "Artist A", Title: "Title B", Snippet: "la la la"}},
		resolver:  &fakeResolver{url: "http://genius.example/a-b"},
		shortener: &fakeShortener{url: "http://short.ly/xyz"},
		sender:    &fakeSender{handle: "SM123", status: DeliveryStatus{Status: "delivered"}},
	}
	f.runner = &Runner{
		Source:    f.source,
		Resolver:  f.resolver,
		Shortener: f.shortener,
		Sender:    f.sender,
		Recipient: "+15550001111",
		now:       func() time.Time { return easternTime(t, 12, 0, 0) },
		sleep: func(_ context.Context, d time.Duration) {
			f.slept = append(f.slept, d)
		},
	}
	return f
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeSent, out.Kind)
	assert.Equal(t, "delivered", out.Status)
	assert.Equal(t, "+15550001111", f.sender.sentRecipient)
	assert.Equal(t, "🎶🎵🎶\nla la la\n🎶🎵🎶\nhttp://short.ly/xyz", f.sender.sentBody)
	assert.Equal(t, []time.Duration{DefaultSettleDelay}, f.slept)
	assert.Equal(t, 1, f.sender.statusCalls)
}

func TestRunSkippedOutsideWindow(t *testing.T) {
	f := newFixture(t)
	f.runner.now = func() time.Time { return easternTime(t, 2, 0, 0) }

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeSkipped, out.Kind)
	assert.Equal(t, "outside availability window", out.Reason)
	// no external work at all when the gate is closed
	assert.Zero(t, f.source.calls)
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.shortener.calls)
	assert.Zero(t, f.sender.sendCalls)
}

func TestRunIgnoreGate(t *testing.T) {
	f := newFixture(t)
	f.runner.now = func() time.Time { return easternTime(t, 2, 0, 0) }
	f.runner.IgnoreGate = true

	out := f.runner.Run(context.Background())
	require.Equal(t, OutcomeSent, out.Kind)
}

func TestRunSourceFailureShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.source.err = ErrSourceUnavailable

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrSourceUnavailable)
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.shortener.calls)
	assert.Zero(t, f.sender.sendCalls)
}

func TestRunResolveFailureShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = ErrReferenceNotFound

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrReferenceNotFound)
	assert.Equal(t, 1, f.source.calls)
	assert.Zero(t, f.shortener.calls)
	assert.Zero(t, f.sender.sendCalls)
}

func TestRunShortenFailureShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.shortener.err = ErrShorteningFailed

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrShorteningFailed)
	assert.Zero(t, f.sender.sendCalls)
}

func TestRunSendRejectionFails(t *testing.T) {
	f := newFixture(t)
	f.sender.sendErr = ErrDeliveryFailed

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrDeliveryFailed)
	assert.Zero(t, f.sender.statusCalls)
}

func TestRunProviderErrorStatusStillSent(t *testing.T) {
	f := newFixture(t)
	f.sender.status = DeliveryStatus{Status: "undelivered", ErrorCode: "30003", ErrorMessage: "Unreachable handset"}

	out := f.runner.Run(context.Background())

	// the message was accepted for delivery, so the run counts as sent
	require.Equal(t, OutcomeSent, out.Kind)
	assert.Equal(t, "undelivered", out.Status)
}

func TestRunStatusFetchErrorStillSent(t *testing.T) {
	f := newFixture(t)
	f.sender.statusErr = ErrDeliveryFailed

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeSent, out.Kind)
	assert.Equal(t, "accepted", out.Status)
}

type panickySource struct{}

func (panickySource) PickRandom(ctx context.Context) (Song, error) { panic("catalog exploded") }

func TestRunRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.runner.Source = panickySource{}

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Contains(t, out.Err.Error(), "catalog exploded")
}

func TestCustomSettleDelay(t *testing.T) {
	f := newFixture(t)
	f.runner.SettleDelay = 5 * time.Second

	out := f.runner.Run(context.Background())

	require.Equal(t, OutcomeSent, out.Kind)
	assert.Equal(t, []time.Duration{5 * time.Second}, f.slept)
}
