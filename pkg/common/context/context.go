// Package context provides helpers for classifying how a guarded
// statement's context ended, used by callers translating context state
// into timeout-kind failures.
package context

import (
	"context"
	"time"
)

// WithTimeoutOrCancel bounds work that precedes arming a deadline, such
// as dialing, so a stuck transport cannot stall the statement before its
// own limit is even in force. The context is canceled when the parent is
// canceled or when the timeout elapses, whichever comes first.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// IsTimedOut reports whether the context ended because its own deadline
// passed, as opposed to an explicit cancel.
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// IsCanceled reports whether the context was canceled outright, the way
// a batch aborts its remaining statements after one of them fails.
func IsCanceled(ctx context.Context) bool {
	return ctx.Err() == context.Canceled
}
