package lsm

import (
	"bytes"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tybulut/lsmio/pkg/logging"
	"github.com/tybulut/lsmio/pkg/pools"
)

// engineState is the Engine's lifecycle state machine: Open, then
// Draining once Close has been called, then Closed once the flusher
// has returned and the final synchronous drain completes.
type engineState int32

const (
	stateOpen engineState = iota
	stateDraining
	stateClosed
)

// Counters is a snapshot of the engine's cumulative byte/op counts.
type Counters struct {
	WriteBytes uint64
	ReadBytes  uint64
	WriteOps   uint64
	ReadOps    uint64
}

// Config is the subset of option table values the engine itself
// consumes. The remaining adapter-only options (cache_size, use_sync,
// block_size, transfer_size, async_batch_size/bytes) live in
// pkg/config and are accepted, validated, and ignored at this layer.
type Config struct {
	WriteBufferSize   int
	WriteBufferNumber int
	FilePoolSize      int
	PreAllocateBytes  int64
	Logger            logging.Logger
}

// Engine is the core of lsmio: an active memtable, a bounded queue of
// immutable memtables awaiting flush, a background flusher, and the
// SSTableManager it hands sealed memtables to. One mutex plus three
// condition variables (flush, backpressure, barrier) coordinate the
// rotation/flush/barrier protocol; the index list inside the
// SSTableManager is the one lock-free exception.
type Engine struct {
	dir    string
	cfg    Config
	logger logging.Logger

	mu              sync.Mutex
	flushCond       *sync.Cond
	backpressureCond *sync.Cond
	barrierCond     *sync.Cond

	active           *Memtable
	immutable        []*Memtable
	flushInProgress  bool
	state            engineState

	manager *SSTableManager

	reuseBuffer *pools.BufferBuilder

	wg sync.WaitGroup

	writeBytes atomic.Uint64
	readBytes  atomic.Uint64
	writeOps   atomic.Uint64
	readOps    atomic.Uint64
}

// Open creates or reopens an engine rooted at dbPath. If overwrite is
// true the directory is removed and recreated first. Opening an
// existing directory recovers its SSTable index via the
// SSTableManager and starts a fresh active memtable and the flusher
// thread.
func Open(dbPath string, overwrite bool, cfg Config) (*Engine, error) {
	if cfg.WriteBufferSize <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.WriteBufferNumber <= 0 {
		cfg.WriteBufferNumber = 1
	}
	if cfg.FilePoolSize <= 0 {
		cfg.FilePoolSize = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	if overwrite {
		if err := os.RemoveAll(dbPath); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, err
	}

	manager, err := OpenSSTableManager(dbPath, cfg.FilePoolSize, cfg.PreAllocateBytes, cfg.Logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dir:         dbPath,
		cfg:         cfg,
		logger:      cfg.Logger,
		active:      NewMemtable(),
		manager:     manager,
		reuseBuffer: pools.NewBufferBuilder(cfg.WriteBufferSize),
	}
	e.flushCond = sync.NewCond(&e.mu)
	e.backpressureCond = sync.NewCond(&e.mu)
	e.barrierCond = sync.NewCond(&e.mu)

	e.wg.Add(1)
	go e.flusherLoop()

	return e, nil
}

// Put enqueues key/value into the active memtable, rotating first if
// adding the record would exceed the memtable budget and the current
// memtable is non-empty. flushHint is advisory and ignored at this
// layer (see DESIGN.md); the Store façade may translate a truthy hint
// into an explicit WriteBarrier call. Returns false only once the
// engine has been closed.
func (e *Engine) Put(key, value []byte, flushHint bool) bool {
	_ = flushHint

	e.mu.Lock()
	if e.state != stateOpen {
		e.mu.Unlock()
		return false
	}

	added := len(key) + len(value)
	if e.active.SizeBytes()+added > e.cfg.WriteBufferSize && !e.active.Empty() {
		e.rotateLocked()
	}
	e.active.Add(key, value)
	e.mu.Unlock()

	e.writeBytes.Add(uint64(added))
	e.writeOps.Add(1)
	return true
}

// Delete is Put(key, Tombstone, flushHint).
func (e *Engine) Delete(key []byte, flushHint bool) bool {
	return e.Put(key, Tombstone, flushHint)
}

// Get resolves key with newest-first precedence: the active memtable,
// then the immutable queue back-to-front, then the SSTableManager. A
// tombstone at the first hit is reported as not-found.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	e.mu.Lock()
	if e.state == stateClosed {
		e.mu.Unlock()
		return nil, false
	}

	if v, ok := e.active.Get(key); ok {
		e.mu.Unlock()
		return e.resolveHit(v)
	}
	for i := len(e.immutable) - 1; i >= 0; i-- {
		if v, ok := e.immutable[i].Get(key); ok {
			e.mu.Unlock()
			return e.resolveHit(v)
		}
	}
	e.mu.Unlock()

	v, ok := e.manager.Get(key)
	if !ok {
		return nil, false
	}
	e.readOps.Add(1)
	e.readBytes.Add(uint64(len(key) + len(v)))
	return e.resolveHit(v)
}

// resolveHit turns a raw stored value into the public optional<value>
// result, suppressing tombstones.
func (e *Engine) resolveHit(v []byte) ([]byte, bool) {
	if bytes.Equal(v, Tombstone) {
		return nil, false
	}
	return v, true
}

// GetPrefix performs a union scan of every layer, newest-wins, with
// tombstone suppression, returning live keys in ascending order.
func (e *Engine) GetPrefix(prefix []byte) []KV {
	results := make(map[string][]byte)
	deleted := make(map[string]struct{})

	e.mu.Lock()
	e.active.Scan(prefix, results, deleted)
	for i := len(e.immutable) - 1; i >= 0; i-- {
		e.immutable[i].Scan(prefix, results, deleted)
	}
	e.mu.Unlock()

	e.manager.Scan(prefix, results, deleted)

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: []byte(k), Value: results[k]})
	}
	return out
}

// KV is a single key/value pair returned by GetPrefix.
type KV struct {
	Key   []byte
	Value []byte
}

// WriteBarrier rotates the active memtable (if non-empty) and blocks
// until the immutable queue is empty and no flush is in progress,
// i.e. until every write issued before this call is durable.
func (e *Engine) WriteBarrier() bool {
	e.mu.Lock()
	if e.state == stateClosed {
		e.mu.Unlock()
		return false
	}

	if !e.active.Empty() {
		e.rotateLocked()
	}
	for len(e.immutable) > 0 || e.flushInProgress {
		e.barrierCond.Wait()
	}
	e.mu.Unlock()
	return true
}

// ReadBarrier is a no-op, present because collaborators issue it in
// remote-aggregation paths.
func (e *Engine) ReadBarrier() bool {
	return true
}

// rotateLocked moves the active memtable to the back of the immutable
// queue and installs a fresh one. Callers must hold e.mu.
func (e *Engine) rotateLocked() {
	for len(e.immutable) >= e.cfg.WriteBufferNumber {
		e.backpressureCond.Wait()
	}
	e.immutable = append(e.immutable, e.active)
	e.active = NewMemtable()
	e.flushCond.Signal()
}

// flusherLoop is the one background flusher thread: it waits for a
// non-empty queue or shutdown, flushes the oldest memtable outside
// the lock, and broadcasts the backpressure and barrier CVs.
func (e *Engine) flusherLoop() {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		for e.state == stateOpen && len(e.immutable) == 0 {
			e.flushCond.Wait()
		}
		if e.state != stateOpen && len(e.immutable) == 0 {
			e.mu.Unlock()
			return
		}

		mt := e.immutable[0]
		e.immutable = e.immutable[1:]
		e.flushInProgress = true
		e.mu.Unlock()

		e.backpressureCond.Broadcast()

		if err := e.manager.FlushMemtable(mt, e.reuseBuffer); err != nil {
			e.logger.Error("lsm: flush failed, memtable abandoned", logging.Error(err))
		}

		e.mu.Lock()
		e.flushInProgress = false
		e.mu.Unlock()

		e.barrierCond.Broadcast()
	}
}

// Close is idempotent: it transitions Open->Draining, wakes and joins
// the flusher, synchronously drains any remaining active memtable,
// and closes the SSTableManager.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.state != stateOpen {
		e.mu.Unlock()
		return
	}
	e.state = stateDraining
	e.flushCond.Broadcast()
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	if !e.active.Empty() {
		e.immutable = append(e.immutable, e.active)
		e.active = NewMemtable()
	}
	remaining := e.immutable
	e.immutable = nil
	e.mu.Unlock()

	for _, mt := range remaining {
		if err := e.manager.FlushMemtable(mt, e.reuseBuffer); err != nil {
			e.logger.Error("lsm: final drain flush failed, memtable abandoned", logging.Error(err))
		}
	}

	e.manager.Close()

	e.mu.Lock()
	e.state = stateClosed
	e.mu.Unlock()
}

// Counters returns a snapshot of cumulative byte/op counts.
func (e *Engine) Counters() Counters {
	return Counters{
		WriteBytes: e.writeBytes.Load(),
		ReadBytes:  e.readBytes.Load(),
		WriteOps:   e.writeOps.Load(),
		ReadOps:    e.readOps.Load(),
	}
}

// SSTableCount returns the number of SSTables currently on disk, per
// the SSTableManager's index list.
func (e *Engine) SSTableCount() int {
	return e.manager.Count()
}

// ImmutableQueueLen returns the number of immutable memtables currently
// awaiting flush.
func (e *Engine) ImmutableQueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.immutable)
}
