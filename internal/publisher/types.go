package publisher

import (
	"context"
	"time"

	"tgpublish/internal/ledger"
)

// Mode selects between attended and unattended operation.
type Mode int

const (
	// ModeInteractive is a single drain-to-completion pass with
	// human-like pacing.
	ModeInteractive Mode = iota
	// ModeForce runs unattended: relaxed quota ceiling, minimal pacing,
	// and repeated passes until cancelled.
	ModeForce
)

func (m Mode) String() string {
	if m == ModeForce {
		return "force"
	}
	return "interactive"
}

// RunConfig is immutable for the duration of one pass.
type RunConfig struct {
	DailyLimit   int
	MinGap       time.Duration
	MaxGap       time.Duration
	Mode         Mode
	RetryMax     int
	RetryBackoff time.Duration
}

// Message is one entry of the ordered plan sent to each recipient.
// PreDelay is applied before sending this message (not after).
type Message struct {
	Text     string
	PreDelay time.Duration
}

// Plan is the ordered message sequence, shared by all recipients in a run.
type Plan []Message

// Outcome classifies the result of one send attempt. Ephemeral; consumed
// within a single loop iteration.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeThrottled
	OutcomePermissionDenied
	OutcomeTransient
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeThrottled:
		return "throttled"
	case OutcomePermissionDenied:
		return "permission_denied"
	case OutcomeTransient:
		return "transient_error"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// RunState is the terminal state of a pass.
type RunState int

const (
	// StateDrained: no eligible work remains. Success.
	StateDrained RunState = iota
	// StateHalted: a fatal condition or cancellation stopped the pass
	// early. Already-recorded sends remain valid.
	StateHalted
)

func (s RunState) String() string {
	if s == StateHalted {
		return "halted"
	}
	return "drained"
}

// Report summarizes one pass.
type Report struct {
	State  RunState
	Sent   int
	Failed map[int64]string // recipient id -> terminal failure reason
	Err    error            // set when State == StateHalted
}

// Usage is the ledger surface the dispatch loop depends on.
type Usage interface {
	Get(id int64, now time.Time) ledger.UsageRecord
	RecordSend(ctx context.Context, id int64, at time.Time) error
}

// EventAttempt is published on the event bus after every send attempt.
const EventAttempt = "publish.attempt"

// AttemptEvent is the status-stream payload: purely informational, never
// read back by the core.
type AttemptEvent struct {
	RecipientID  int64
	MessageIndex int
	Outcome      Outcome
	At           time.Time
}
