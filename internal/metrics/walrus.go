package metrics

import "github.com/prometheus/client_golang/prometheus"

// Storage-layer Prometheus metrics.
var (
	WalrusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "factstore",
			Name:      "walrus_requests_total",
			Help:      "Total number of Walrus network requests",
		},
		[]string{"endpoint", "op", "status"},
	)

	WalrusRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "factstore",
			Name:      "walrus_request_duration_seconds",
			Help:      "Walrus request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	StorageFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "factstore",
			Name:      "storage_fallbacks_total",
			Help:      "Degrade transitions to local fallback storage",
		},
		[]string{"reason"},
	)

	StorageBlobsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "factstore",
			Name:      "storage_blobs_served_total",
			Help:      "Blob operations by serving source",
		},
		[]string{"op", "source"}, // op: "store" / "retrieve", source: "remote" / "local"
	)
)

var storageMetricsRegistered bool

// RegisterStorageMetrics registers storage Prometheus metrics. Must be called once from main.
func RegisterStorageMetrics() {
	if storageMetricsRegistered {
		return
	}
	prometheus.MustRegister(WalrusRequestsTotal)
	prometheus.MustRegister(WalrusRequestDuration)
	prometheus.MustRegister(StorageFallbacksTotal)
	prometheus.MustRegister(StorageBlobsServed)
	storageMetricsRegistered = true
}
