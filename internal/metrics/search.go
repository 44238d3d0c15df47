package metrics

import "github.com/prometheus/client_golang/prometheus"

// Consolidated search Prometheus metrics.
var searchStrategyDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "shopsearch",
		Name:      "search_strategy_duration_seconds",
		Help:      "Consolidated search per-strategy retrieval duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
	[]string{"strategy"},
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(searchStrategyDuration)
	searchMetricsRegistered = true
}

// StrategyObserver feeds per-strategy durations into the histogram.
// It satisfies the search usecase's StrategyObserver interface.
type StrategyObserver struct{}

func (StrategyObserver) ObserveStrategy(strategy string, seconds float64) {
	searchStrategyDuration.WithLabelValues(strategy).Observe(seconds)
}
