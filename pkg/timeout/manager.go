package timeout

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/willibrandon/mtlog/core"

	"github.com/vnykmshr/querydeadline/pkg/deadline"
)

// manager implements the Manager interface.
type manager struct {
	cfg      Config
	clock    Clock
	logger   core.Logger
	registry *deadline.Registry
	rec      recorder

	// wake carries at most one pending nudge for the watcher to
	// recompute its sleep after a registry change.
	wake    chan struct{}
	closeCh chan struct{}
	closed  atomic.Bool

	// lifecycleMu serializes watcher start and stop decisions. It is
	// never held while delivering a cancellation.
	lifecycleMu sync.Mutex
	state       atomic.Int32
	watcherDone chan struct{}

	totalArmed     atomic.Int64
	totalCompleted atomic.Int64
	totalFired     atomic.Int64
	cancelFailures atomic.Int64
	rejected       atomic.Int64
	starts         atomic.Int64
}

// Arm registers a deadline d from now. See Manager.Arm.
func (m *manager) Arm(d time.Duration, cancel deadline.Canceler) *Handle {
	if d <= 0 {
		// Zero and negative timeouts mean "no limit": nothing to track.
		return &Handle{}
	}
	if m.closed.Load() {
		m.logger.Warning("Arm on closed manager, {Timeout} not enforced", d)
		m.reject()
		return &Handle{}
	}

	now := m.clock.Now()
	dl := deadline.New(now.Add(d), now, cancel)
	if err := m.registry.Add(dl); err != nil {
		// Fail open: better an unguarded operation than a refused one.
		m.logger.Error("deadline registry at capacity {MaxArmed}, {Timeout} not enforced: {Error}",
			m.cfg.MaxArmed, d, err)
		m.reject()
		return &Handle{}
	}
	if m.closed.Load() {
		// Lost the race with Close; release the slot and run unguarded.
		m.registry.Remove(dl.ID())
		m.reject()
		return &Handle{}
	}

	m.totalArmed.Add(1)
	m.rec.armed()
	m.poke()
	m.ensureStarted()
	return &Handle{m: m, d: dl, limit: d}
}

// Do runs op with a deadline of d. See Manager.Do.
func (m *manager) Do(d time.Duration, op Operation) error {
	if op == nil {
		return fmt.Errorf("operation cannot be nil")
	}

	h := m.Arm(d, deadline.CancelFunc(op.Cancel))
	err := op.Run()
	if h.Disarm() {
		return err
	}

	// The deadline fired while Run was in flight: report the timeout and
	// keep Run's result as the cause.
	return h.timeoutError(err)
}

// State reports the watcher's lifecycle state.
func (m *manager) State() LifecycleState {
	return LifecycleState(m.state.Load())
}

// Stats returns a snapshot of the manager's counters.
func (m *manager) Stats() Stats {
	return Stats{
		State:          m.State(),
		Armed:          m.registry.Len(),
		TotalArmed:     m.totalArmed.Load(),
		TotalCompleted: m.totalCompleted.Load(),
		TotalFired:     m.totalFired.Load(),
		CancelFailures: m.cancelFailures.Load(),
		Rejected:       m.rejected.Load(),
		Starts:         m.starts.Load(),
	}
}

// Close permanently stops the manager. See Manager.Close.
func (m *manager) Close() error {
	m.lifecycleMu.Lock()
	if m.closed.Load() {
		m.lifecycleMu.Unlock()
		return nil
	}
	m.closed.Store(true)
	close(m.closeCh)
	done := m.watcherDone
	m.lifecycleMu.Unlock()

	if done != nil {
		<-done
	}

	// Whatever is still armed runs to completion without its deadline.
	if released := m.registry.Drain(); released > 0 {
		m.logger.Warning("closed with {Count} armed deadlines released unfired", released)
	}
	m.logger.Information("manager closed")
	return nil
}

// disarm removes dl from the registry after its operation finished. Only
// the first call for a given deadline does the bookkeeping.
func (m *manager) disarm(dl *deadline.Deadline) {
	if !m.registry.Remove(dl.ID()) {
		return
	}
	m.totalCompleted.Add(1)
	m.rec.completed()
	m.poke()
}

// reject records an Arm that the manager refused to track.
func (m *manager) reject() {
	m.rejected.Add(1)
	m.rec.rejected()
}

// poke nudges the watcher to recompute its sleep. A full channel already
// carries the signal.
func (m *manager) poke() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

var _ Manager = (*manager)(nil)
