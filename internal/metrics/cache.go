package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache Prometheus metrics, labeled by cache instance name
// (search, product, recommendations).
var (
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsearch",
			Name:      "cache_hits_total",
			Help:      "Total cache hits",
		},
		[]string{"cache"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsearch",
			Name:      "cache_misses_total",
			Help:      "Total cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsearch",
			Name:      "cache_evictions_total",
			Help:      "Total cache LRU evictions",
		},
		[]string{"cache"},
	)
)

var cacheMetricsRegistered bool

// RegisterCacheMetrics registers Prometheus cache metrics. Must be called once from main.
func RegisterCacheMetrics() {
	if cacheMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheEvictionsTotal)
	cacheMetricsRegistered = true
}

// CacheObserver feeds cache events into the Prometheus counters.
// It satisfies the cache package's Observer interface.
type CacheObserver struct{}

func (CacheObserver) Hit(name string)      { CacheHitsTotal.WithLabelValues(name).Inc() }
func (CacheObserver) Miss(name string)     { CacheMissesTotal.WithLabelValues(name).Inc() }
func (CacheObserver) Eviction(name string) { CacheEvictionsTotal.WithLabelValues(name).Inc() }
