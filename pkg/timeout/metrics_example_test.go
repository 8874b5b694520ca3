package timeout

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	qderrors "github.com/vnykmshr/querydeadline/pkg/common/errors"
	"github.com/vnykmshr/querydeadline/pkg/metrics"
)

// Example_metricsBasic demonstrates metrics collection around guarded operations.
func Example_metricsBasic() {
	// Create a separate registry to avoid conflicts
	customRegistry := prometheus.NewRegistry()
	metricsConfig := metrics.Config{
		Enabled:  true,
		Registry: customRegistry,
	}

	m := NewWithMetrics(Config{Name: "orders_db"}, metricsConfig)
	defer m.Close()

	// A fast statement disarms its deadline.
	err := m.Do(time.Second, OperationFuncs{
		RunFunc: func() error { return nil },
	})
	fmt.Println("fast statement error:", err)

	// A stuck statement is cut off at its deadline.
	release := make(chan struct{})
	err = m.Do(30*time.Millisecond, OperationFuncs{
		RunFunc: func() error {
			<-release
			return nil
		},
		CancelFunc: func() error {
			close(release)
			return nil
		},
	})
	fmt.Println("stuck statement timed out:", qderrors.IsTimeout(err))

	st := m.Stats()
	fmt.Printf("armed=%d completed=%d fired=%d\n", st.TotalArmed, st.TotalCompleted, st.TotalFired)

	// Output:
	// fast statement error: <nil>
	// stuck statement timed out: true
	// armed=2 completed=1 fired=1
}

// Example_metricsConfiguration demonstrates enabling and disabling metrics.
func Example_metricsConfiguration() {
	disabled := NewWithMetrics(Config{Name: "no_metrics"}, metrics.Config{
		Enabled: false,
	})
	defer disabled.Close()

	customRegistry := prometheus.NewRegistry()
	enabled := NewWithMetrics(Config{Name: "with_metrics"}, metrics.Config{
		Enabled:  true,
		Registry: customRegistry,
	})
	defer enabled.Close()

	if inst, ok := enabled.(metrics.Instrumentable); ok {
		fmt.Printf("enabled manager has metrics: %v\n", inst.MetricsEnabled())
	}
	if inst, ok := disabled.(metrics.Instrumentable); ok {
		fmt.Printf("disabled manager has metrics: %v\n", inst.MetricsEnabled())
	}

	// Output:
	// enabled manager has metrics: true
	// disabled manager has metrics: false
}

// Example_metricsHTTPServer demonstrates exposing manager metrics via HTTP.
func Example_metricsHTTPServer() {
	// Create a separate registry to avoid conflicts
	customRegistry := prometheus.NewRegistry()
	metricsConfig := metrics.Config{
		Enabled:  true,
		Registry: customRegistry,
	}

	m := NewWithMetrics(Config{Name: "api_queries"}, metricsConfig)
	defer m.Close()

	completed := 0
	for i := 0; i < 5; i++ {
		h := m.Arm(time.Second, nil)
		if h.Disarm() {
			completed++
		}
	}

	// In a real application, you would start an HTTP server like this:
	//
	// http.Handle("/metrics", promhttp.Handler())
	// log.Fatal(http.ListenAndServe(":8080", nil))
	//
	// This would expose metrics at http://localhost:8080/metrics

	fmt.Printf("Completed %d out of 5 statements before their deadlines\n", completed)
	fmt.Println("Metrics server would be available at /metrics endpoint")

	// Output:
	// Completed 5 out of 5 statements before their deadlines
	// Metrics server would be available at /metrics endpoint
}
