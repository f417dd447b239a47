// Command lsmio-bench drives a concurrent put workload against a
// fresh lsmio database and prints the bandwidth summary per worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tybulut/lsmio/pkg/benchmark"
	"github.com/tybulut/lsmio/pkg/config"
	"github.com/tybulut/lsmio/pkg/store"
)

func main() {
	dataDir := flag.String("data", "./data/lsmio-bench", "database directory (wiped before the run)")
	concurrency := flag.Int("concurrency", 4, "number of concurrent writers")
	opsPerWorker := flag.Int("ops", 10000, "puts issued by each writer")
	keySize := flag.Int("key-size", 16, "key size in bytes")
	valueSize := flag.Int("value-size", 100, "value size in bytes")
	writeBufferSize := flag.Int("write-buffer-size", 4<<20, "memtable size budget in bytes")
	flag.Parse()

	cfg := config.Default()
	cfg.WriteBufferSize = *writeBufferSize

	s, err := store.Open(*dataDir, true, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsmio-bench: opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	fmt.Printf("running %d workers x %d ops (key=%dB value=%dB)\n", *concurrency, *opsPerWorker, *keySize, *valueSize)

	rec, err := benchmark.RunPutWorkload(context.Background(), s, benchmark.WorkloadConfig{
		Concurrency:  *concurrency,
		OpsPerWorker: *opsPerWorker,
		KeySize:      *keySize,
		ValueSize:    *valueSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsmio-bench: workload failed: %v\n", err)
		os.Exit(1)
	}

	s.WriteBarrier()

	for w := 0; w < *concurrency; w++ {
		label := fmt.Sprintf("put:%d", w)
		summary, ok := rec.Summary(label)
		if !ok {
			continue
		}
		fmt.Printf("worker %2d: %s\n", w, summary)
	}
}
