// Package benchmark records per-iteration (elapsed, bytes, ops) tuples
// keyed by label and summarizes them into min/mean/max bandwidth, in
// the style of the mutex-protected sample slice the storage-engine
// comparison suite uses for latency histograms.
package benchmark

import (
	"fmt"
	"sync"
)

// mibDivisor is the literal 1.024*1.024 factor the bandwidth formula
// requires; it is not a MiB-per-byte conversion, it is part of the
// contract verbatim.
const mibDivisor = 1.024 * 1.024

// sample is one recorded iteration: elapsed time in microseconds, the
// byte count moved, and the operation count it represents.
type sample struct {
	elapsedMicros float64
	bytes         uint64
	ops           uint64
}

// Summary is the aggregate view of every sample recorded under a
// label.
type Summary struct {
	MinBandwidthMiBps  float64
	MeanBandwidthMiBps float64
	MaxBandwidthMiBps  float64
	Iterations         int
	TotalBytesMiB      float64
	TotalOps           uint64
}

// Recorder accumulates samples per label across any number of
// goroutines.
type Recorder struct {
	mu      sync.Mutex
	samples map[string][]sample
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{samples: make(map[string][]sample)}
}

// Record appends one iteration's (elapsed, bytes, ops) tuple under
// label. Safe for concurrent use.
func (r *Recorder) Record(label string, elapsedMicros float64, bytes uint64, ops uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[label] = append(r.samples[label], sample{elapsedMicros: elapsedMicros, bytes: bytes, ops: ops})
}

// Summary aggregates every sample recorded under label. Returns false
// if label has no samples.
func (r *Recorder) Summary(label string) (Summary, bool) {
	r.mu.Lock()
	samples := append([]sample(nil), r.samples[label]...)
	r.mu.Unlock()

	if len(samples) == 0 {
		return Summary{}, false
	}

	var (
		sumBW      float64
		minBW      = bandwidth(samples[0])
		maxBW      = minBW
		totalBytes uint64
		totalOps   uint64
	)
	for _, s := range samples {
		bw := bandwidth(s)
		sumBW += bw
		if bw < minBW {
			minBW = bw
		}
		if bw > maxBW {
			maxBW = bw
		}
		totalBytes += s.bytes
		totalOps += s.ops
	}

	return Summary{
		MinBandwidthMiBps:  minBW,
		MeanBandwidthMiBps: sumBW / float64(len(samples)),
		MaxBandwidthMiBps:  maxBW,
		Iterations:         len(samples),
		TotalBytesMiB:      float64(totalBytes) / (1024 * 1024),
		TotalOps:           totalOps,
	}, true
}

// bandwidth computes bytes / µs / 1.024 / 1.024 for one sample.
func bandwidth(s sample) float64 {
	if s.elapsedMicros == 0 {
		return 0
	}
	return float64(s.bytes) / s.elapsedMicros / mibDivisor
}

// String renders a Summary the way the corpus prints comparison-suite
// results: one line, fixed to two decimal places.
func (s Summary) String() string {
	return fmt.Sprintf(
		"min=%.2f mean=%.2f max=%.2f bytes=%.2f ops=%d iters=%d",
		s.MinBandwidthMiBps, s.MeanBandwidthMiBps, s.MaxBandwidthMiBps,
		s.TotalBytesMiB, s.TotalOps, s.Iterations,
	)
}
