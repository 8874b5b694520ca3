package timeout

import (
	"time"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"

	"github.com/vnykmshr/querydeadline/pkg/common/validation"
	"github.com/vnykmshr/querydeadline/pkg/deadline"
	"github.com/vnykmshr/querydeadline/pkg/metrics"
)

// Operation is a cancelable unit of work that can be guarded by a deadline.
type Operation interface {
	// Run executes the work, blocking until it finishes or until a
	// delivered cancellation takes effect.
	Run() error

	// Cancel interrupts a running Run. It is invoked from a delivery
	// worker goroutine, never from the goroutine executing Run, so it
	// must be safe to call concurrently with Run.
	Cancel() error
}

// OperationFuncs adapts plain functions to the Operation interface.
// A nil field behaves as a no-op.
type OperationFuncs struct {
	RunFunc    func() error
	CancelFunc func() error
}

// Run implements Operation.
func (o OperationFuncs) Run() error {
	if o.RunFunc == nil {
		return nil
	}
	return o.RunFunc()
}

// Cancel implements Operation.
func (o OperationFuncs) Cancel() error {
	if o.CancelFunc == nil {
		return nil
	}
	return o.CancelFunc()
}

// Manager tracks deadlines for in-flight operations and delivers
// cancellations to the ones that expire. A single background watcher
// serves all deadlines; it starts on the first Arm and retires itself
// once the registry has been empty for the grace period.
type Manager interface {
	// Arm registers a deadline d from now, returning a Handle the caller
	// uses to disarm it when the operation finishes. A zero or negative
	// d arms nothing and returns an inert handle, as does arming a
	// closed manager or one whose registry is full: in every such case
	// the operation simply runs unguarded.
	Arm(d time.Duration, cancel deadline.Canceler) *Handle

	// Do runs op with a deadline of d. If the deadline fires first, op's
	// Cancel is delivered and the returned error is a TimeoutError
	// wrapping whatever Run returned. Otherwise Run's own result is
	// returned. A zero or negative d runs op with no deadline.
	Do(d time.Duration, op Operation) error

	// State reports the watcher's lifecycle state.
	State() LifecycleState

	// Stats returns a snapshot of the manager's counters.
	Stats() Stats

	// Close permanently stops the manager. Armed deadlines are released
	// without firing, so their operations keep running unguarded. Close
	// blocks until the watcher and its delivery workers have exited and
	// is safe to call more than once.
	Close() error
}

// Stats is a point-in-time snapshot of manager activity.
type Stats struct {
	// State is the watcher's lifecycle state.
	State LifecycleState

	// Armed is the number of currently armed deadlines.
	Armed int

	// TotalArmed counts every deadline ever armed.
	TotalArmed int64

	// TotalCompleted counts operations that finished before their deadline.
	TotalCompleted int64

	// TotalFired counts deadlines that expired.
	TotalFired int64

	// CancelFailures counts cancellations that returned an error or panicked.
	CancelFailures int64

	// Rejected counts Arm calls refused because the manager was closed
	// or the registry was full.
	Rejected int64

	// Starts counts watcher launches, including restarts after idle
	// shutdowns.
	Starts int64
}

// Default configuration values, applied by NewWithConfig for zero fields.
const (
	// DefaultTickInterval caps how long the watcher sleeps between scans.
	DefaultTickInterval = 250 * time.Millisecond

	// DefaultGracePeriod is how long an idle watcher lingers before
	// shutting itself down.
	DefaultGracePeriod = time.Second

	// DefaultMaxArmed bounds the number of simultaneously armed deadlines.
	DefaultMaxArmed = 16384

	// DefaultCancelWorkers is the number of cancellation delivery workers.
	DefaultCancelWorkers = 2

	// DefaultCancelQueueSize is the delivery queue depth per watcher session.
	DefaultCancelQueueSize = 64
)

// Config holds configuration options for creating a manager.
type Config struct {
	// Name identifies this manager in logs and metric labels.
	// Defaults to "default".
	Name string

	// TickInterval caps the watcher's sleep between scans, bounding how
	// stale its view of the registry can get. Zero or negative means
	// DefaultTickInterval.
	TickInterval time.Duration

	// GracePeriod is how long the watcher stays alive after the registry
	// empties, so back-to-back operations reuse one goroutine instead of
	// restarting it. Zero or negative means DefaultGracePeriod.
	GracePeriod time.Duration

	// MaxArmed bounds the registry. Arming beyond it is refused and the
	// operation runs unguarded. Zero means DefaultMaxArmed; negative
	// means unbounded.
	MaxArmed int

	// CancelWorkers is the number of goroutines delivering cancellations.
	// Zero or negative means DefaultCancelWorkers.
	CancelWorkers int

	// CancelQueueSize bounds the delivery queue. When it is full a
	// delivery runs on its own goroutine so the watcher never blocks.
	// Zero or negative means DefaultCancelQueueSize.
	CancelQueueSize int

	// Clock supplies time to the watcher. Nil means the system clock.
	Clock Clock

	// Logger receives lifecycle and delivery events. Nil means silent.
	Logger core.Logger

	// Metrics records Prometheus metrics for this manager. Nil disables
	// instrumentation.
	Metrics *metrics.Registry
}

// New creates a manager with default configuration.
func New() Manager {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a manager with the given configuration, applying
// defaults for zero fields.
func NewWithConfig(cfg Config) Manager {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.MaxArmed == 0 {
		cfg.MaxArmed = DefaultMaxArmed
	}
	if cfg.CancelWorkers <= 0 {
		cfg.CancelWorkers = DefaultCancelWorkers
	}
	if cfg.CancelQueueSize <= 0 {
		cfg.CancelQueueSize = DefaultCancelQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = mtlog.New()
	}

	m := &manager{
		cfg:      cfg,
		clock:    cfg.Clock,
		logger:   logger.ForContext("Manager", cfg.Name),
		registry: deadline.NewRegistry(cfg.MaxArmed),
		wake:     make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	m.rec.name = cfg.Name
	if cfg.Metrics != nil {
		m.rec.reg.Store(cfg.Metrics)
	}
	return m
}

// NewSafe creates a manager after validating the configuration, returning
// an error instead of silently correcting bad values.
func NewSafe(cfg Config) (Manager, error) {
	if err := validation.ValidateNonNegativeDuration("timeout", "tick_interval", cfg.TickInterval); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("timeout", "grace_period", cfg.GracePeriod); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("timeout", "cancel_workers", float64(cfg.CancelWorkers)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("timeout", "cancel_queue_size", float64(cfg.CancelQueueSize)); err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}
