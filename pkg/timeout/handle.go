package timeout

import (
	"time"

	qderrors "github.com/vnykmshr/querydeadline/pkg/common/errors"
	"github.com/vnykmshr/querydeadline/pkg/deadline"
)

// neverFired is the Done channel shared by all inert handles.
var neverFired = make(chan struct{})

// Handle controls one armed deadline. An inert handle, returned when
// nothing was armed, tracks nothing: Disarm reports true, Fired reports
// false, and Err is always nil.
type Handle struct {
	m     *manager
	d     *deadline.Deadline
	limit time.Duration
}

// ID returns the deadline's identifier, or "" for an inert handle.
func (h *Handle) ID() string {
	if h.d == nil {
		return ""
	}
	return h.d.ID()
}

// Expiry returns the instant the deadline fires, or the zero time for an
// inert handle.
func (h *Handle) Expiry() time.Time {
	if h.d == nil {
		return time.Time{}
	}
	return h.d.Expiry()
}

// Disarm reports that the guarded operation finished. It returns true
// when the deadline never fired, so the operation's own result stands,
// and false when cancellation was already on its way. Disarm is
// idempotent and safe on every completion path, including handles whose
// deadline was never registered.
func (h *Handle) Disarm() bool {
	if h.d == nil {
		return true
	}
	h.m.disarm(h.d)
	return !h.d.Fired()
}

// Fired reports whether the deadline expired before being disarmed.
func (h *Handle) Fired() bool {
	if h.d == nil {
		return false
	}
	return h.d.Fired()
}

// Done returns a channel that is closed if the deadline fires. For inert
// handles it returns a channel that never closes.
func (h *Handle) Done() <-chan struct{} {
	if h.d == nil {
		return neverFired
	}
	return h.d.Done()
}

// Err returns nil while the deadline has not fired and a TimeoutError
// once it has.
func (h *Handle) Err() error {
	if h.d == nil || !h.d.Fired() {
		return nil
	}
	return h.timeoutError(nil)
}

// timeoutError builds the error reported to callers after the deadline
// fired. cause carries whatever the interrupted operation returned.
func (h *Handle) timeoutError(cause error) error {
	elapsed := h.m.clock.Now().Sub(h.d.ArmedAt())
	return qderrors.NewTimeoutError(h.d.ID(), h.limit, elapsed, cause)
}
