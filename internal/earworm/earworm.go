// Package earworm holds the message pipeline: pick a random song, resolve
// a lyrics reference for it, shorten the link, compose the message, and
// hand it to the sender. Providers are reached only through the interfaces
// below so the pipeline can be driven against fakes.
package earworm

import "context"

// Song is one catalog entry: the artist/title used for the lyrics lookup
// and the snippet that goes into the message body.
type Song struct {
	Artist  string
	Title   string
	Snippet string
}

// MessageHandle identifies a submitted message at the provider, used to
// fetch its delivery status afterwards.
type MessageHandle string

// DeliveryStatus is the provider-reported state of a submitted message.
// ErrorCode/ErrorMessage are empty unless the provider flagged a problem.
type DeliveryStatus struct {
	Status       string
	ErrorCode    string
	ErrorMessage string
}

type SongSource interface {
	// PickRandom returns one uniformly random catalog entry.
	PickRandom(ctx context.Context) (Song, error)
}

type ReferenceResolver interface {
	// Resolve maps (artist, title) to a canonical lyrics URL.
	Resolve(ctx context.Context, artist, title string) (string, error)
}

type LinkShortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type MessageSender interface {
	Send(ctx context.Context, recipient, body string) (MessageHandle, error)
	FetchStatus(ctx context.Context, handle MessageHandle) (DeliveryStatus, error)
}
