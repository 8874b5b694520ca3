/*
Package timeout enforces per-operation deadlines for blocking work such
as database queries, delivering a cancellation to any operation that
outlives its limit.

A Manager owns a registry of armed deadlines and one background watcher
goroutine. The watcher sleeps until the earliest deadline, hands expired
ones to a small pool of delivery workers, and shuts itself down after
the registry has been empty for a grace period. The next Arm starts it
again, so idle applications carry no background goroutines.

Basic usage:

	mgr := timeout.New()
	defer mgr.Close()

	h := mgr.Arm(5*time.Second, deadline.CancelFunc(func() error {
		return conn.Close() // interrupts the blocked read below
	}))

	err := runQuery(conn) // blocking work
	if !h.Disarm() {
		return h.Err() // the deadline fired; err is a side effect of the cancel
	}
	return err

Or with the Do helper, which arms, runs, and disarms in one call:

	err := mgr.Do(5*time.Second, timeout.OperationFuncs{
		RunFunc:    func() error { return runQuery(conn) },
		CancelFunc: conn.Close,
	})
	var te *qderrors.TimeoutError
	if errors.As(err, &te) {
		// the query was canceled after te.Elapsed
	}

Cancellation Semantics:

A deadline's canceler is invoked from a delivery worker goroutine, never
from the goroutine running the guarded operation. Closing a network
connection or canceling a context both work; the guarded call then fails
in its own goroutine and the caller maps that to h.Err() or the
TimeoutError returned by Do.

Errors from cancelers are logged and counted but never propagated: the
caller of the guarded operation learns about the timeout through its own
call path. A full registry or a closed manager likewise never blocks an
operation; Arm returns an inert handle and the operation simply runs
without a deadline.

Races between completion and expiry resolve to exactly one winner. If
Disarm gets there first the cancel never runs; if the deadline fired
first, Disarm reports false and the caller should treat the operation's
result as a timeout.

Lifecycle:

The watcher's state is observable through State() and moves through
Stopped, Starting, Running, and Stopping. Back-to-back operations reuse
one watcher because of the grace period; a restart after a real idle
stretch reuses the same watch function, so diagnostics can always find
the goroutine under the same name.

Configuration:

	mgr := timeout.NewWithConfig(timeout.Config{
		Name:          "orders-db",
		GracePeriod:   5 * time.Second,
		CancelWorkers: 4,
		Logger:        mtlog.New(mtlog.WithConsole()),
		Metrics:       metrics.DefaultRegistry,
	})

NewSafe validates the configuration and returns an error instead of
applying defaults to out-of-range values.

Monitoring:

Stats() reports armed, completed, fired, and rejected counts plus
watcher starts. With a metrics registry configured the same numbers are
exported as Prometheus series under the querydeadline namespace,
including fire-lag and cancel-duration histograms.

Thread Safety:

All Manager and Handle methods are safe for concurrent use. Handle
methods are additionally safe to call multiple times and on every
completion path; Disarm after a fired deadline is a no-op that reports
what happened.
*/
package timeout
