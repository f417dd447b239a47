package metrics

import (
	"sync"
	"time"

	"github.com/tybulut/lsmio/pkg/lsm"
)

// RecordStorageOperation records a single put/delete/get/get_prefix/
// barrier call and its outcome.
func (r *Registry) RecordStorageOperation(operation, status string, duration time.Duration) {
	r.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSSTableCount updates the point-in-time SSTable count gauge.
func (r *Registry) SetSSTableCount(n int) {
	r.StorageSSTableCount.Set(float64(n))
}

// SetImmutableQueued updates the point-in-time immutable-queue-depth
// gauge.
func (r *Registry) SetImmutableQueued(n int) {
	r.StorageImmutableQueued.Set(float64(n))
}

// lastCounters tracks the previous Engine.Counters() snapshot so
// MirrorEngineCounters can add only the delta to the monotonic
// Prometheus counters, which (unlike the engine's atomics) cannot be
// set to an absolute value.
type lastCounters struct {
	mu   sync.Mutex
	prev lsm.Counters
}

var engineDeltas sync.Map // *Registry -> *lastCounters

// MirrorEngineCounters adds the delta between the engine's current
// cumulative counters and the last-observed snapshot to this
// registry's engine counters. Safe to call periodically (e.g. from a
// metrics-scrape hook) since Engine.Counters() is a cheap atomic load.
func (r *Registry) MirrorEngineCounters(c lsm.Counters) {
	v, _ := engineDeltas.LoadOrStore(r, &lastCounters{})
	lc := v.(*lastCounters)

	lc.mu.Lock()
	defer lc.mu.Unlock()

	r.EngineWriteBytesTotal.Add(float64(c.WriteBytes - lc.prev.WriteBytes))
	r.EngineReadBytesTotal.Add(float64(c.ReadBytes - lc.prev.ReadBytes))
	r.EngineWriteOpsTotal.Add(float64(c.WriteOps - lc.prev.WriteOps))
	r.EngineReadOpsTotal.Add(float64(c.ReadOps - lc.prev.ReadOps))
	lc.prev = c
}
