package timeout

import (
	"testing"
	"time"

	"github.com/vnykmshr/querydeadline/internal/testutil"
)

// Stack frame substrings for the manager's background goroutines. The
// watcher always runs under the same function, so operators can find it
// in a stack dump whether it is the first session or a restart.
const (
	watchFunc  = "timeout.(*manager).watch"
	workerFunc = "timeout.(*cancelPool).worker"
)

// These tests count goroutines by function name, so they must not run in
// parallel with each other.

func TestLifecycle_LazyStart(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  100 * time.Millisecond,
	})
	defer m.Close()

	testutil.AssertEqual(t, m.State(), StateStopped)
	testutil.AssertEqual(t, testutil.GoroutineCount(watchFunc), 0)

	h := m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return m.State() == StateRunning })
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(watchFunc) == 1 })
	testutil.AssertEqual(t, m.Stats().Starts, int64(1))

	h.Disarm()
}

func TestLifecycle_GraceShutdown(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  60 * time.Millisecond,
	})
	defer m.Close()

	h := m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return m.State() == StateRunning })

	h.Disarm()

	// Watcher and delivery workers retire after the grace period.
	testutil.Eventually(t, func() bool {
		return m.State() == StateStopped
	}, testutil.TestTimeout, 10*time.Millisecond)
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(watchFunc) == 0 })
	testutil.AssertEqual(t, testutil.GoroutineCount(workerFunc), 0)
}

func TestLifecycle_RestartSameIdentity(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  40 * time.Millisecond,
	})
	defer m.Close()

	first := m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(watchFunc) == 1 })
	first.Disarm()

	testutil.Eventually(t, func() bool {
		return m.State() == StateStopped
	}, testutil.TestTimeout, 5*time.Millisecond)

	// The next statement brings the watcher back under the same function.
	second := m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return m.State() == StateRunning })
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(watchFunc) == 1 })
	testutil.AssertEqual(t, m.Stats().Starts, int64(2))

	second.Disarm()
}

func TestLifecycle_NoFlapping(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  300 * time.Millisecond,
	})
	defer m.Close()

	// Back-to-back statements with idle gaps well inside the grace period.
	for i := 0; i < 5; i++ {
		h := m.Arm(time.Hour, nil)
		time.Sleep(15 * time.Millisecond)
		h.Disarm()
		time.Sleep(15 * time.Millisecond)
	}

	testutil.AssertEqual(t, m.Stats().Starts, int64(1))
	testutil.AssertEqual(t, m.State(), StateRunning)
}

func TestLifecycle_ArmDuringGraceKeepsWatcher(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  250 * time.Millisecond,
	})
	defer m.Close()

	m.Arm(time.Hour, nil).Disarm()
	testutil.AssertEventually(t, func() bool { return m.State() == StateRunning })

	// Re-arm midway through the grace period.
	time.Sleep(50 * time.Millisecond)
	h := m.Arm(time.Hour, nil)

	// Well past the original grace deadline, the first watcher still runs.
	time.Sleep(300 * time.Millisecond)
	testutil.AssertEqual(t, m.State(), StateRunning)
	testutil.AssertEqual(t, m.Stats().Starts, int64(1))

	h.Disarm()
}

func TestLifecycle_CloseStopsWatcher(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval: 10 * time.Millisecond,
		GracePeriod:  time.Hour,
	})

	m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return m.State() == StateRunning })

	testutil.AssertNoError(t, m.Close())
	testutil.AssertEqual(t, m.State(), StateStopped)
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(watchFunc) == 0 })
	testutil.AssertEqual(t, testutil.GoroutineCount(workerFunc), 0)
}

func TestLifecycle_PoolWorkersDiscoverable(t *testing.T) {
	m := NewWithConfig(Config{
		TickInterval:  10 * time.Millisecond,
		GracePeriod:   time.Hour,
		CancelWorkers: 3,
	})
	defer m.Close()

	h := m.Arm(time.Hour, nil)
	testutil.AssertEventually(t, func() bool { return testutil.GoroutineCount(workerFunc) == 3 })

	h.Disarm()
}

func TestLifecycleState_String(t *testing.T) {
	tests := []struct {
		state LifecycleState
		want  string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{LifecycleState(99), "unknown"},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, tt.state.String(), tt.want)
	}
}
