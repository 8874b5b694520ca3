package timeout

import (
	"sync/atomic"
	"time"

	"github.com/vnykmshr/querydeadline/pkg/metrics"
)

// NewWithMetrics creates a manager that records Prometheus metrics. The
// default shared registry is used unless the metrics config names another.
func NewWithMetrics(cfg Config, metricsConfig metrics.Config) Manager {
	if !metricsConfig.Enabled {
		return NewWithConfig(cfg)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}
	cfg.Metrics = registry
	return NewWithConfig(cfg)
}

// EnableMetrics implements metrics.Instrumentable.
func (m *manager) EnableMetrics(config metrics.Config) error {
	if !config.Enabled {
		m.rec.reg.Store(nil)
		return nil
	}

	registry := metrics.DefaultRegistry
	if config.Registry != nil {
		registry = metrics.NewRegistry(config.Registry)
	}
	m.rec.reg.Store(registry)
	return nil
}

// DisableMetrics implements metrics.Instrumentable.
func (m *manager) DisableMetrics() {
	m.rec.reg.Store(nil)
}

// MetricsEnabled implements metrics.Instrumentable.
func (m *manager) MetricsEnabled() bool {
	return m.rec.reg.Load() != nil
}

// recorder fans manager events out to Prometheus. With no registry set
// every method is a cheap no-op, so the hot paths carry a single atomic
// load when instrumentation is off.
type recorder struct {
	name string
	reg  atomic.Pointer[metrics.Registry]
}

func (r *recorder) armed() {
	if reg := r.reg.Load(); reg != nil {
		reg.DeadlinesArmed.WithLabelValues(r.name).Inc()
		reg.ArmedDeadlines.WithLabelValues(r.name).Inc()
	}
}

func (r *recorder) completed() {
	if reg := r.reg.Load(); reg != nil {
		reg.DeadlinesCompleted.WithLabelValues(r.name).Inc()
		reg.ArmedDeadlines.WithLabelValues(r.name).Dec()
	}
}

func (r *recorder) fired(lag time.Duration) {
	if reg := r.reg.Load(); reg != nil {
		reg.DeadlinesFired.WithLabelValues(r.name).Inc()
		reg.ArmedDeadlines.WithLabelValues(r.name).Dec()
		reg.FireLag.WithLabelValues(r.name).Observe(lag.Seconds())
	}
}

func (r *recorder) rejected() {
	if reg := r.reg.Load(); reg != nil {
		reg.DeadlinesRejected.WithLabelValues(r.name).Inc()
	}
}

func (r *recorder) cancelDelivery() {
	if reg := r.reg.Load(); reg != nil {
		reg.CancelDeliveries.WithLabelValues(r.name).Inc()
	}
}

func (r *recorder) cancelFailed() {
	if reg := r.reg.Load(); reg != nil {
		reg.CancelFailures.WithLabelValues(r.name).Inc()
	}
}

func (r *recorder) cancelOverflow() {
	if reg := r.reg.Load(); reg != nil {
		reg.CancelOverflows.WithLabelValues(r.name).Inc()
	}
}

func (r *recorder) cancelDuration(took time.Duration) {
	if reg := r.reg.Load(); reg != nil {
		reg.CancelDuration.WithLabelValues(r.name).Observe(took.Seconds())
	}
}

func (r *recorder) started() {
	if reg := r.reg.Load(); reg != nil {
		reg.ManagerStarts.WithLabelValues(r.name).Inc()
		reg.ManagerUp.WithLabelValues(r.name).Set(1)
	}
}

func (r *recorder) stopped() {
	if reg := r.reg.Load(); reg != nil {
		reg.ManagerStops.WithLabelValues(r.name).Inc()
		reg.ManagerUp.WithLabelValues(r.name).Set(0)
	}
}
