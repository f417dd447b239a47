package store

import "github.com/tybulut/lsmio/pkg/lsm"

// nativeBackend wraps pkg/lsm.Engine to satisfy Backend. always_flush,
// when set, turns every Put/Delete into an implicit write barrier so
// callers observe immediate durability at the cost of throughput; see
// DESIGN.md for why that's done here rather than inside the engine.
type nativeBackend struct {
	engine      *lsm.Engine
	alwaysFlush bool
}

func (n *nativeBackend) Put(key, value []byte, flushHint bool) bool {
	ok := n.engine.Put(key, value, flushHint)
	if ok && (n.alwaysFlush || flushHint) {
		n.engine.WriteBarrier()
	}
	return ok
}

func (n *nativeBackend) Delete(key []byte, flushHint bool) bool {
	ok := n.engine.Delete(key, flushHint)
	if ok && (n.alwaysFlush || flushHint) {
		n.engine.WriteBarrier()
	}
	return ok
}

func (n *nativeBackend) Get(key []byte) ([]byte, bool) {
	return n.engine.Get(key)
}

func (n *nativeBackend) GetPrefix(prefix []byte) []lsm.KV {
	return n.engine.GetPrefix(prefix)
}

func (n *nativeBackend) WriteBarrier() bool {
	return n.engine.WriteBarrier()
}

func (n *nativeBackend) ReadBarrier() bool {
	return n.engine.ReadBarrier()
}

func (n *nativeBackend) Close() {
	n.engine.Close()
}

func (n *nativeBackend) Counters() lsm.Counters {
	return n.engine.Counters()
}

func (n *nativeBackend) SSTableCount() int {
	return n.engine.SSTableCount()
}

func (n *nativeBackend) ImmutableQueueLen() int {
	return n.engine.ImmutableQueueLen()
}
