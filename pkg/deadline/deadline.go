package deadline

import (
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// State describes where a deadline is in its life cycle.
type State int32

const (
	// Armed means the deadline is registered and may still fire.
	Armed State = iota

	// Fired means the expiry passed and cancellation is being delivered.
	Fired

	// Disarmed is terminal: either the guarded operation finished before
	// the expiry, or cancellation has already been delivered.
	Disarmed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	case Disarmed:
		return "disarmed"
	default:
		return "unknown"
	}
}

// Canceler delivers a cancellation to a guarded operation. Implementations
// must be callable from a goroutine other than the one running the
// operation; closing a network connection or canceling a context both
// qualify.
type Canceler interface {
	Cancel() error
}

// CancelFunc adapts a plain function to the Canceler interface.
type CancelFunc func() error

// Cancel calls f.
func (f CancelFunc) Cancel() error { return f() }

// Deadline is one armed timeout: an expiry instant paired with the means
// to cancel the guarded operation if that instant passes. State
// transitions are atomic, so exactly one of Disarm or Fire wins any race
// between completion and expiry.
type Deadline struct {
	id       string
	expiry   time.Time
	armedAt  time.Time
	canceler Canceler
	state    atomic.Int32
	fired    chan struct{}

	// heapIdx is the deadline's position in the registry heap, maintained
	// by expiryHeap.Swap so removal is O(log n). -1 when not in a heap.
	heapIdx int
}

// New creates an armed Deadline expiring at expiry. armedAt records when
// the guarded operation started and feeds elapsed-time reporting.
func New(expiry, armedAt time.Time, c Canceler) *Deadline {
	return &Deadline{
		id:       ulid.Make().String(),
		expiry:   expiry,
		armedAt:  armedAt,
		canceler: c,
		fired:    make(chan struct{}),
		heapIdx:  -1,
	}
}

// ID returns the identifier assigned at creation.
func (d *Deadline) ID() string { return d.id }

// Expiry returns the instant after which the deadline fires.
func (d *Deadline) Expiry() time.Time { return d.expiry }

// ArmedAt returns the instant the deadline was armed.
func (d *Deadline) ArmedAt() time.Time { return d.armedAt }

// State returns the current state.
func (d *Deadline) State() State {
	return State(d.state.Load())
}

// Disarm moves the deadline from Armed to Disarmed. It returns true when
// this call made the transition and false when the deadline already
// fired or was disarmed before.
func (d *Deadline) Disarm() bool {
	return d.state.CompareAndSwap(int32(Armed), int32(Disarmed))
}

// Fire moves the deadline from Armed to Fired and closes the Done
// channel. It returns true when this call made the transition.
func (d *Deadline) Fire() bool {
	if d.state.CompareAndSwap(int32(Armed), int32(Fired)) {
		close(d.fired)
		return true
	}
	return false
}

// Settle moves the deadline from Fired to Disarmed after cancellation
// delivery has finished, successfully or not.
func (d *Deadline) Settle() bool {
	return d.state.CompareAndSwap(int32(Fired), int32(Disarmed))
}

// Fired reports whether the deadline ever fired, even if it has since
// been settled.
func (d *Deadline) Fired() bool {
	select {
	case <-d.fired:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the deadline fires. For
// deadlines disarmed in time it never closes.
func (d *Deadline) Done() <-chan struct{} {
	return d.fired
}

// Cancel invokes the configured canceler. A nil canceler is a no-op.
func (d *Deadline) Cancel() error {
	if d.canceler == nil {
		return nil
	}
	return d.canceler.Cancel()
}
