package publisher

import (
	"errors"
	"time"

	"tgpublish/internal/transport"
)

// Classify maps a raw send error into the outcome taxonomy driving the
// dispatch loop. For throttles it also returns the provider-specified wait,
// verbatim: approximating it downward would break the anti-ban contract.
//
// Unrecognized errors default to transient (bounded retries), never
// silently swallowed.
func Classify(err error) (Outcome, time.Duration) {
	if err == nil {
		return OutcomeSent, 0
	}

	var throttled *transport.ThrottledError
	if errors.As(err, &throttled) {
		return OutcomeThrottled, throttled.RetryAfter
	}

	var perm *transport.PermissionError
	if errors.As(err, &perm) {
		return OutcomePermissionDenied, 0
	}

	var fatal *transport.FatalError
	if errors.As(err, &fatal) {
		return OutcomeFatal, 0
	}

	return OutcomeTransient, 0
}
