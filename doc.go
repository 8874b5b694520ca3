/*
Package querydeadline provides deadline enforcement for blocking operations,
built for database drivers that must cut off statements at their query timeout.

Timeout Management (pkg/timeout):
  - Manager: arms deadlines, watches them on one shared goroutine, and
    delivers cancellations to overrunning operations
  - Do: wraps a cancelable operation with a deadline in one call

Deadline Tracking (pkg/deadline):
  - Deadline: single-fire state machine for one armed timeout
  - Registry: expiry-ordered index of every armed deadline

Shared Infrastructure (pkg/common, pkg/metrics):
  - errors: timeout classification for callers
  - validation: configuration checks
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/querydeadline/pkg/timeout"
	)

	m := timeout.New()
	defer m.Close()

	err := m.Do(30*time.Second, timeout.OperationFuncs{
		RunFunc:    func() error { return stmt.Exec() },
		CancelFunc: func() error { return stmt.CancelRequest() },
	})
*/
package querydeadline
