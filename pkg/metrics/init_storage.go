package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStorageMetrics() {
	r.EngineWriteBytesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lsmio_engine_write_bytes_total",
			Help: "Cumulative bytes written to the engine across all puts and deletes.",
		},
	)

	r.EngineReadBytesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lsmio_engine_read_bytes_total",
			Help: "Cumulative bytes read back from on-disk SSTables on a get.",
		},
	)

	r.EngineWriteOpsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lsmio_engine_write_ops_total",
			Help: "Cumulative count of put/delete operations.",
		},
	)

	r.EngineReadOpsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lsmio_engine_read_ops_total",
			Help: "Cumulative count of gets resolved by an SSTable read.",
		},
	)

	r.StorageOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsmio_storage_operations_total",
			Help: "Total number of storage operations by kind and outcome.",
		},
		[]string{"operation", "status"},
	)

	r.StorageOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lsmio_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.StorageSSTableCount = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lsmio_storage_sstable_count",
			Help: "Number of SSTables currently registered in the index list.",
		},
	)

	r.StorageImmutableQueued = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lsmio_storage_immutable_queued",
			Help: "Number of immutable memtables currently awaiting flush.",
		},
	)
}
