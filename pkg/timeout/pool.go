package timeout

import (
	"runtime/debug"
	"sync"

	"github.com/vnykmshr/querydeadline/pkg/deadline"
)

// cancelPool delivers cancellations for fired deadlines on a small set of
// worker goroutines, so a slow or blocking canceler never stalls the
// watcher or other deliveries.
type cancelPool struct {
	m        *manager
	queue    chan *deadline.Deadline
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newCancelPool(m *manager) *cancelPool {
	p := &cancelPool{
		m:      m,
		queue:  make(chan *deadline.Deadline, m.cfg.CancelQueueSize),
		stopCh: make(chan struct{}),
	}
	p.wg.Add(m.cfg.CancelWorkers)
	for i := 0; i < m.cfg.CancelWorkers; i++ {
		go p.worker()
	}
	return p
}

// submit hands a fired deadline to the workers. It never blocks: when the
// queue is full the delivery runs on a goroutine of its own.
func (p *cancelPool) submit(dl *deadline.Deadline) {
	select {
	case p.queue <- dl:
	default:
		p.m.rec.cancelOverflow()
		p.m.logger.Warning("cancel queue full, delivering {DeadlineId} on a dedicated goroutine", dl.ID())
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.deliver(dl)
		}()
	}
}

func (p *cancelPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			// Deliver anything already queued before exiting.
			for {
				select {
				case dl := <-p.queue:
					p.deliver(dl)
				default:
					return
				}
			}
		case dl := <-p.queue:
			p.deliver(dl)
		}
	}
}

// deliver invokes the canceler. Errors and panics are recorded and
// swallowed here; the guarded operation's caller learns about the timeout
// through its own call path, never from the delivery worker.
func (p *cancelPool) deliver(dl *deadline.Deadline) {
	start := p.m.clock.Now()
	p.m.rec.cancelDelivery()

	defer func() {
		if r := recover(); r != nil {
			p.m.cancelFailures.Add(1)
			p.m.rec.cancelFailed()
			p.m.logger.Error("canceler for {DeadlineId} panicked: {Panic}\n{Stack}",
				dl.ID(), r, string(debug.Stack()))
		}
		dl.Settle()
		p.m.rec.cancelDuration(p.m.clock.Now().Sub(start))
	}()

	if err := dl.Cancel(); err != nil {
		p.m.cancelFailures.Add(1)
		p.m.rec.cancelFailed()
		p.m.logger.Warning("cancellation for {DeadlineId} failed: {Error}", dl.ID(), err)
		return
	}
	p.m.logger.Debug("cancellation delivered for {DeadlineId}", dl.ID())
}

// stop signals the workers to drain and exit. Safe to call more than once.
func (p *cancelPool) stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// wait blocks until every worker and overflow delivery has finished.
func (p *cancelPool) wait() {
	p.wg.Wait()
}
