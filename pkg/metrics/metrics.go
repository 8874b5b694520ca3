// Package metrics provides Prometheus instrumentation for querydeadline components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for querydeadline components.
type Registry struct {
	// Deadline Metrics
	DeadlinesArmed     *prometheus.CounterVec
	DeadlinesCompleted *prometheus.CounterVec
	DeadlinesFired     *prometheus.CounterVec
	DeadlinesRejected  *prometheus.CounterVec
	ArmedDeadlines     *prometheus.GaugeVec
	FireLag            *prometheus.HistogramVec

	// Cancellation Metrics
	CancelDeliveries *prometheus.CounterVec
	CancelFailures   *prometheus.CounterVec
	CancelOverflows  *prometheus.CounterVec
	CancelDuration   *prometheus.HistogramVec

	// Manager Lifecycle Metrics
	ManagerStarts *prometheus.CounterVec
	ManagerStops  *prometheus.CounterVec
	ManagerUp     *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by querydeadline components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Deadline Metrics
		DeadlinesArmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "armed_total",
				Help:      "Total number of deadlines armed",
			},
			[]string{"manager_name"},
		),

		DeadlinesCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "completed_total",
				Help:      "Total number of deadlines disarmed before expiry",
			},
			[]string{"manager_name"},
		),

		DeadlinesFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "fired_total",
				Help:      "Total number of deadlines that expired and were dispatched for cancellation",
			},
			[]string{"manager_name"},
		),

		DeadlinesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "rejected_total",
				Help:      "Total number of arm requests rejected by a full registry (operation proceeds unprotected)",
			},
			[]string{"manager_name"},
		),

		ArmedDeadlines: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "armed",
				Help:      "Number of deadlines currently armed",
			},
			[]string{"manager_name"},
		),

		FireLag: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "querydeadline",
				Subsystem: "deadline",
				Name:      "fire_lag_seconds",
				Help:      "Time between a deadline's expiry and its detection by the manager",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"manager_name"},
		),

		// Cancellation Metrics
		CancelDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "cancel",
				Name:      "deliveries_total",
				Help:      "Total number of cancel hooks invoked",
			},
			[]string{"manager_name"},
		),

		CancelFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "cancel",
				Name:      "failures_total",
				Help:      "Total number of cancel hooks that returned an error or panicked",
			},
			[]string{"manager_name"},
		),

		CancelOverflows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "cancel",
				Name:      "overflows_total",
				Help:      "Total number of cancellations delivered outside the worker queue because it was full",
			},
			[]string{"manager_name"},
		),

		CancelDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "querydeadline",
				Subsystem: "cancel",
				Name:      "duration_seconds",
				Help:      "Time spent inside cancel hooks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"manager_name"},
		),

		// Manager Lifecycle Metrics
		ManagerStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "manager",
				Name:      "starts_total",
				Help:      "Total number of manager starts, including restarts after idle shutdown",
			},
			[]string{"manager_name"},
		),

		ManagerStops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querydeadline",
				Subsystem: "manager",
				Name:      "stops_total",
				Help:      "Total number of manager stops, automatic or explicit",
			},
			[]string{"manager_name"},
		),

		ManagerUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "querydeadline",
				Subsystem: "manager",
				Name:      "up",
				Help:      "Whether the manager goroutine is currently running (1) or stopped (0)",
			},
			[]string{"manager_name"},
		),
	}
}
