package earworm

// OutcomeKind discriminates the three ways a run can end.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeSent
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// RunOutcome is the result of one end-to-end run. Exactly one of the
// payload fields is meaningful, selected by Kind.
type RunOutcome struct {
	Kind OutcomeKind

	// Skipped
	Reason string
	// Sent: provider-reported delivery status at settle time
	Status string
	// Failed
	Err error
}

func Skipped(reason string) RunOutcome { return RunOutcome{Kind: OutcomeSkipped, Reason: reason} }
func Sent(status string) RunOutcome    { return RunOutcome{Kind: OutcomeSent, Status: status} }
func Failed(err error) RunOutcome      { return RunOutcome{Kind: OutcomeFailed, Err: err} }
