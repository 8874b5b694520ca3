/*
Package deadline provides the building blocks for tracking query timeouts:
individual deadlines and a concurrent registry ordered by expiry.

A Deadline pairs an expiry instant with the means to cancel the guarded
operation. Its state moves through a small machine with atomic
transitions, so a racing completion and expiry resolve to exactly one
winner:

	Armed ──Disarm──▶ Disarmed        (operation finished in time)
	Armed ──Fire────▶ Fired           (expiry passed, cancel pending)
	Fired ──Settle──▶ Disarmed        (cancellation delivered)

Basic usage:

	d := deadline.New(time.Now().Add(time.Second), time.Now(),
		deadline.CancelFunc(func() error {
			return conn.Close()
		}))

	reg := deadline.NewRegistry(1024)
	if err := reg.Add(d); err != nil {
		// registry full
	}

	// Operation finished in time:
	if reg.Remove(d.ID()) {
		// deadline disarmed, cancel will never run
	}

	// Or, from the watcher:
	for _, fired := range reg.PopExpired(time.Now()) {
		fired.Cancel()
		fired.Settle()
	}

The registry keeps deadlines in a min-heap keyed by expiry, so the next
deadline to fire is always available in O(1) via NextExpiry and removal
of a completed operation is O(log n).

Thread Safety:

All Registry operations and all Deadline state transitions are safe for
concurrent use. Registry methods hold an internal lock only for the
duration of the call and never while delivering a cancellation.
*/
package deadline
