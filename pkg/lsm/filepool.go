package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// pooledFile is one pre-created output file sitting in the FilePool's
// deque, ready to be handed to the flusher.
type pooledFile struct {
	path string
	id   uint64
	file *os.File
}

// FilePool is a background-replenished deque of pre-created, opened
// output files with monotonically increasing ids. Pre-creating files
// off the write path hides file-create latency from the flusher.
type FilePool struct {
	dir        string
	prefix     string
	suffix     string
	targetSize int
	preAlloc   int64

	mu       sync.Mutex
	cond     *sync.Cond
	deque    []*pooledFile
	nextID   uint64
	shutdown bool

	wg sync.WaitGroup
}

// NewFilePool constructs a FilePool and starts its background worker.
// startingID is the id of the first file the pool will create; it
// must be max_id+1 of whatever the SSTableManager found during
// recovery so ids remain monotonic across restarts.
func NewFilePool(dir, prefix, suffix string, poolSize int, startingID uint64, preAllocateBytes int64) *FilePool {
	p := &FilePool{
		dir:        dir,
		prefix:     prefix,
		suffix:     suffix,
		targetSize: poolSize,
		preAlloc:   preAllocateBytes,
		nextID:     startingID,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(1)
	go p.worker()

	return p
}

// path formats the file name for id using the pool's prefix/suffix
// and a 6-digit zero-padded id, matching SSTablePath's convention.
func (p *FilePool) path(id uint64) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s%06d%s", p.prefix, id, p.suffix))
}

// worker keeps the deque topped up to targetSize, creating (and
// optionally pre-allocating) files in the background so acquire()
// rarely has to wait on file-create latency.
func (p *FilePool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shutdown && len(p.deque) >= p.targetSize {
			p.cond.Wait()
		}
		if p.shutdown {
			p.mu.Unlock()
			return
		}
		id := p.nextID
		p.nextID++
		p.mu.Unlock()

		f, err := p.createFile(id)
		if err != nil {
			// The file could not be created; the loop retries straight
			// away with the next id. The id is not reused to preserve
			// monotonicity.
			continue
		}

		p.mu.Lock()
		if p.shutdown {
			p.mu.Unlock()
			_ = f.Close()
			return
		}
		p.deque = append(p.deque, &pooledFile{path: p.path(id), id: id, file: f})
		p.mu.Unlock()
	}
}

// createFile opens a new output file and, if requested, reserves
// preAlloc bytes for it. Preference order mirrors the host's best
// available primitive: a contiguous reservation syscall where one
// exists, falling back to a plain truncate otherwise.
func (p *FilePool) createFile(id uint64) (*os.File, error) {
	f, err := os.OpenFile(p.path(id), os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	if p.preAlloc > 0 {
		if err := preallocate(f, p.preAlloc); err != nil {
			// Pre-allocation is an optimization, not a correctness
			// requirement; fall back to an unreserved file.
			_ = f.Truncate(0)
		}
	}

	return f, nil
}

// Acquire blocks until the deque is non-empty, then pops and returns
// the front entry, signalling the worker to replenish. It reports
// ErrPoolShutdown if the pool was shut down while empty.
func (p *FilePool) Acquire() (path string, id uint64, file *os.File, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.deque) == 0 && !p.shutdown {
		p.cond.Wait()
	}
	if len(p.deque) == 0 {
		return "", 0, nil, ErrPoolShutdown
	}

	pf := p.deque[0]
	p.deque = p.deque[1:]
	p.cond.Signal()

	return pf.path, pf.id, pf.file, nil
}

// Close shuts the pool down: any files already pre-created but not
// yet acquired are closed and left on disk for a future open to
// rediscover.
func (p *FilePool) Close() {
	p.mu.Lock()
	p.shutdown = true
	remaining := p.deque
	p.deque = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	for _, pf := range remaining {
		_ = pf.file.Close()
	}
}
