package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the storage-layer metrics lsmio optionally mirrors
// its engine counters into. It deliberately carries no HTTP, query,
// replication, cluster, licensing or security groups: this is a
// storage engine, not the full service those groups belonged to.
type Registry struct {
	// Engine counters, mirrored from Engine.Counters() by the Store
	// façade when metrics are enabled.
	EngineWriteBytesTotal prometheus.Counter
	EngineReadBytesTotal  prometheus.Counter
	EngineWriteOpsTotal   prometheus.Counter
	EngineReadOpsTotal    prometheus.Counter

	// Operation-level metrics, recorded per call.
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Point-in-time gauges reflecting on-disk structure.
	StorageSSTableCount    prometheus.Gauge
	StorageImmutableQueued prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry, lazily
// constructed on first use.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry, backed by its own
// dedicated *prometheus.Registry rather than the global default one,
// so multiple engines in the same process don't collide on metric
// names.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{registry: reg}
	r.initStorageMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry,
// for callers that want to expose it via an HTTP handler.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
