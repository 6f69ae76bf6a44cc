package engine

import "github.com/prometheus/client_golang/prometheus"

var runsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recommendation_runs_total",
		Help: "How many recommendation runs completed, partitioned by strategy.",
	},
	[]string{"strategy"},
)

// RegisterMetrics registers the engine metrics with the default
// Prometheus registry.
func RegisterMetrics() error {
	return prometheus.Register(runsTotal)
}

// UnregisterMetrics unregisters the engine metrics. This is needed to
// cleanly exit and for test isolation.
func UnregisterMetrics() bool {
	return prometheus.Unregister(runsTotal)
}
