package timeout

import (
	"runtime/debug"
	"time"
)

// LifecycleState describes the watcher goroutine's lifecycle.
type LifecycleState int32

const (
	// StateStopped means no watcher goroutine exists.
	StateStopped LifecycleState = iota

	// StateStarting means a watcher has been spawned but is not scanning yet.
	StateStarting

	// StateRunning means the watcher is scanning deadlines.
	StateRunning

	// StateStopping means the watcher is draining its delivery pool on
	// the way out.
	StateStopping
)

// String returns a human-readable state name.
func (s LifecycleState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ensureStarted spawns the watcher if one is not already alive. Arming is
// lazy: the goroutine exists only while there is, or recently was,
// something to watch. Restarts reuse the same watch function, so the
// goroutine is discoverable under the same name across sessions.
func (m *manager) ensureStarted() {
	if LifecycleState(m.state.Load()) == StateRunning {
		return
	}

	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.closed.Load() {
		return
	}
	if LifecycleState(m.state.Load()) != StateStopped {
		// A watcher is starting, running, or about to observe the new
		// deadline before committing to a stop.
		return
	}

	m.state.Store(int32(StateStarting))
	m.watcherDone = make(chan struct{})
	m.starts.Add(1)
	m.rec.started()
	m.logger.Debug("starting watcher")
	go m.watch(newCancelPool(m))
}

// watch is the manager's single background goroutine. It fires whatever
// is due, sleeps until the earliest deadline, and retires itself once the
// registry has been empty for the grace period. Each session owns a fresh
// delivery pool.
func (m *manager) watch(pool *cancelPool) {
	m.state.Store(int32(StateRunning))

	var emptySince time.Time
	for {
		m.sweep(pool)

		now := m.clock.Now()
		var wait time.Duration
		if next, ok := m.registry.NextExpiry(); ok {
			emptySince = time.Time{}
			wait = next.Sub(now)
			if wait <= 0 {
				// Already due; sweep again without sleeping.
				continue
			}
		} else {
			if emptySince.IsZero() {
				emptySince = now
			}
			idle := now.Sub(emptySince)
			if idle >= m.cfg.GracePeriod {
				if m.tryStop(pool) {
					return
				}
				// New work arrived during the stop attempt.
				continue
			}
			wait = m.cfg.GracePeriod - idle
		}
		if wait > m.cfg.TickInterval {
			wait = m.cfg.TickInterval
		}

		select {
		case <-m.closeCh:
			m.stopWatcher(pool)
			m.logger.Debug("watcher stopped on close")
			return
		case <-m.wake:
		case <-m.clock.After(wait):
		}
	}
}

// sweep fires every due deadline and hands it to the delivery pool.
// Panics are contained so a bad scan never kills the watcher.
func (m *manager) sweep(pool *cancelPool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("deadline sweep panicked: {Panic}\n{Stack}", r, string(debug.Stack()))
		}
	}()

	now := m.clock.Now()
	for _, dl := range m.registry.PopExpired(now) {
		lag := now.Sub(dl.Expiry())
		m.totalFired.Add(1)
		m.rec.fired(lag)
		m.logger.Debug("deadline {DeadlineId} fired {Lag} past expiry", dl.ID(), lag)
		pool.submit(dl)
	}
}

// tryStop retires the watcher if the registry is still empty. An Arm
// racing the idle grace period lands in the registry before this check,
// so it keeps the watcher alive instead of being stranded.
func (m *manager) tryStop(pool *cancelPool) bool {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.registry.Len() > 0 {
		return false
	}
	m.stopWatcherLocked(pool)
	m.logger.Debug("watcher idle for {GracePeriod}, stopping", m.cfg.GracePeriod)
	return true
}

// stopWatcher tears down the current watcher session.
func (m *manager) stopWatcher(pool *cancelPool) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	m.stopWatcherLocked(pool)
}

// stopWatcherLocked drains the session's delivery pool and publishes the
// Stopped state. Callers hold lifecycleMu, which keeps ensureStarted from
// spawning a second watcher until the old session is fully gone.
func (m *manager) stopWatcherLocked(pool *cancelPool) {
	m.state.Store(int32(StateStopping))
	pool.stop()
	pool.wait()
	m.state.Store(int32(StateStopped))
	m.rec.stopped()
	if m.watcherDone != nil {
		close(m.watcherDone)
		m.watcherDone = nil
	}
}
