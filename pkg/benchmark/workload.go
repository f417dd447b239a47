package benchmark

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tybulut/lsmio/pkg/store"
)

// WorkloadConfig describes a concurrent put workload driven
// against a Store, one worker per goroutine, each contributing its own
// label so per-worker bandwidth can be summarized independently.
type WorkloadConfig struct {
	Concurrency int
	OpsPerWorker int
	KeySize     int
	ValueSize   int
}

// RunPutWorkload drives cfg.Concurrency goroutines, each issuing
// cfg.OpsPerWorker sequential puts against s and recording one sample
// per worker under label "put:<worker index>". The returned Recorder
// can be summarized per-worker or merged by the caller.
func RunPutWorkload(ctx context.Context, s *store.Store, cfg WorkloadConfig) (*Recorder, error) {
	rec := NewRecorder()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Concurrency; w++ {
		worker := w
		g.Go(func() error {
			return runPutWorker(ctx, s, cfg, worker, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rec, nil
}

func runPutWorker(ctx context.Context, s *store.Store, cfg WorkloadConfig, worker int, rec *Recorder) error {
	label := fmt.Sprintf("put:%d", worker)
	key := make([]byte, cfg.KeySize)
	value := make([]byte, cfg.ValueSize)

	var elapsed time.Duration
	var totalBytes uint64
	for i := 0; i < cfg.OpsPerWorker; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		fillSequential(key, worker, i)
		fillSequential(value, worker, i)

		before := time.Now()
		s.Put(key, value, false)
		elapsed += time.Since(before)
		totalBytes += uint64(len(key) + len(value))
	}
	rec.Record(label, float64(elapsed.Microseconds()), totalBytes, uint64(cfg.OpsPerWorker))
	return nil
}

// fillSequential deterministically fills buf from worker and i without
// needing a random source. The bytes depend only on worker+i, so pairs
// with the same sum (e.g. worker 0, i 1 and worker 1, i 0) produce the
// same byte string.
func fillSequential(buf []byte, worker, i int) {
	for idx := range buf {
		buf[idx] = byte(worker + i + idx)
	}
}
