package renewip

import (
	"errors"
	"fmt"
	"time"
)

// Address is a public address exactly as the oracle reported it.
// Two addresses are equal only if their text is identical.
type Address string

func (a Address) String() string { return string(a) }

// Observation is the result of a single oracle call.
// Either an Address was observed, or the oracle could not be reached and Cause says why.
type Observation struct {
	Address Address
	Cause   error
}

// Observed constructs a successful Observation.
func Observed(addr Address) Observation {
	return Observation{Address: addr}
}

// Unreachable constructs an Observation for an oracle that could not answer.
// The Cause always matches ErrUnreachable with errors.Is.
func Unreachable(cause error) Observation {
	switch {
	case cause == nil:
		cause = ErrUnreachable
	case !errors.Is(cause, ErrUnreachable):
		cause = fmt.Errorf("%w: %w", ErrUnreachable, cause)
	}
	return Observation{Cause: cause}
}

// Reachable reports whether the oracle answered with an address.
func (o Observation) Reachable() bool { return o.Cause == nil }

func (o Observation) String() string {
	if o.Reachable() {
		return o.Address.String()
	}
	return "unreachable"
}

// PollAttempt describes one evaluated iteration of the detection loop.
type PollAttempt struct {
	Index       int // 0-based
	Observation Observation
	Elapsed     time.Duration // total time spent waiting before this attempt
}

// DetectionKind is the terminal state of a detection run.
type DetectionKind int

const (
	Changed DetectionKind = iota + 1
	Exhausted
)

func (k DetectionKind) String() string {
	switch k {
	case Changed:
		return "changed"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("DetectionKind(%d)", int(k))
	}
}

// DetectionOutcome is produced exactly once per call to Detector.Detect.
type DetectionOutcome struct {
	Kind    DetectionKind
	Address Address // only set when Kind == Changed
	// Attempts is the number of oracle calls that were made.
	Attempts int
	Elapsed  time.Duration
	// OracleDown is set when detection stopped because the oracle was unreachable
	// for more consecutive attempts than the detector allows.
	OracleDown bool
}

// RunKind is the terminal state of a Session run.
type RunKind int

const (
	Completed RunKind = iota + 1
	RunExhausted
	TriggerFailed
	BaselineUnavailable
)

func (k RunKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case RunExhausted:
		return "exhausted"
	case TriggerFailed:
		return "trigger failed"
	case BaselineUnavailable:
		return "baseline unavailable"
	default:
		return fmt.Sprintf("RunKind(%d)", int(k))
	}
}

// RunOutcome is the end-to-end result of Session.Run.
type RunOutcome struct {
	Kind     RunKind
	Baseline Address
	Address  Address // new address, only set when Kind == Completed
	// Detection is set for Completed and RunExhausted.
	Detection *DetectionOutcome
	// Err holds the cause for TriggerFailed and BaselineUnavailable.
	Err error

	// Side effects that failed after a completed detection. They never change Kind.
	HistoryErr error
	PublishErr error
}
