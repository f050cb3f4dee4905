package earworm

import "github.com/cockroachdb/errors"

// Run-scoped failure taxonomy. All four terminate only the current run;
// the scheduler handles recovery. Providers wrap these so errors.Is works
// through whatever context they add.
var (
	ErrSourceUnavailable = errors.New("song source unavailable")
	ErrReferenceNotFound = errors.New("lyrics reference not found")
	ErrShorteningFailed  = errors.New("link shortening failed")
	ErrDeliveryFailed    = errors.New("message delivery failed")
)
