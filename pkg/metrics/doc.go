// Package metrics provides Prometheus instrumentation for querydeadline components.
//
// This package enables monitoring and observability for deadline bookkeeping,
// cancellation delivery, and manager lifecycle through Prometheus metrics.
//
// # Overview
//
// The metrics package provides automatic instrumentation for:
//   - Deadline bookkeeping (armed, completed, fired, rejected, currently armed)
//   - Expiry detection precision (fire lag between expiry and detection)
//   - Cancellation delivery (deliveries, failures, durations, queue overflows)
//   - Manager lifecycle (starts, stops, up/down state)
//
// # Quick Start
//
// Enable metrics by passing a registry in the manager configuration:
//
//	mgr := timeout.NewWithConfig(timeout.Config{
//		Name:    "primary",
//		Metrics: metrics.DefaultRegistry,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	mgr := timeout.NewWithConfig(timeout.Config{
//		Name:    "isolated",
//		Metrics: metrics.NewRegistry(registry),
//	})
//
// # Available Metrics
//
// ## Deadline Metrics
//
//   - querydeadline_deadline_armed_total: Total number of deadlines armed
//   - querydeadline_deadline_completed_total: Total number of deadlines disarmed before expiry
//   - querydeadline_deadline_fired_total: Total number of deadlines that expired
//   - querydeadline_deadline_rejected_total: Total arm requests rejected by a full registry
//   - querydeadline_deadline_armed: Number of deadlines currently armed
//   - querydeadline_deadline_fire_lag_seconds: Time between expiry and detection
//
// ## Cancellation Metrics
//
//   - querydeadline_cancel_deliveries_total: Total number of cancel hooks invoked
//   - querydeadline_cancel_failures_total: Total cancel hooks that errored or panicked
//   - querydeadline_cancel_overflows_total: Cancellations delivered outside the worker queue
//   - querydeadline_cancel_duration_seconds: Time spent inside cancel hooks
//
// ## Manager Lifecycle Metrics
//
//   - querydeadline_manager_starts_total: Total number of manager starts
//   - querydeadline_manager_stops_total: Total number of manager stops
//   - querydeadline_manager_up: Whether the manager goroutine is running
//
// # Labels
//
// All metrics carry a manager_name label so several managers in one process
// can be told apart:
//
//   - manager_name: User-provided name for the manager instance
//
// # Performance
//
// Metrics collection is designed for minimal overhead:
//   - Metrics are updated only when deadline events occur
//   - No background goroutines or timers
//   - A nil registry in the manager config disables collection entirely
package metrics
