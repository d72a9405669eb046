// Package transport defines the send-capability contract the publishing
// core consumes, together with the error taxonomy adapters must map
// provider failures into.
package transport

import (
	"context"
	"fmt"
	"time"
)

// Recipient is a messaging destination (group or channel) identified by a
// stable chat id. The core references recipients by id only.
type Recipient struct {
	ID   int64
	Name string
}

// Sender is the raw message-transmission primitive.
//
// Implementations must be invokable repeatedly and must not retry silently;
// retry policy belongs to the dispatch loop. Provider failures are reported
// through the typed errors below (anything else is treated as transient).
type Sender interface {
	Send(ctx context.Context, to int64, text string) error
}

// ThrottledError reports a provider-imposed pause ("flood wait").
//
// RetryAfter is the provider-specified duration verbatim. Callers must wait
// at least this long before retrying; shortening it violates the provider's
// rate-limit contract.
type ThrottledError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled: retry after %s", e.RetryAfter)
}

func (e *ThrottledError) Unwrap() error { return e.Cause }

// PermissionError means the account cannot post to this recipient (kicked,
// banned, write-forbidden, chat gone). Terminal for the recipient, never
// for the run.
type PermissionError struct {
	Reason string
	Cause  error
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return "permission denied: " + e.Reason
	}
	return "permission denied"
}

func (e *PermissionError) Unwrap() error { return e.Cause }

// FatalError means the whole run cannot proceed (credentials invalidated,
// token revoked). Requires operator remediation.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return "fatal: " + e.Cause.Error()
	}
	return "fatal transport error"
}

func (e *FatalError) Unwrap() error { return e.Cause }
