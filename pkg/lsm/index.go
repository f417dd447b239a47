package lsm

import (
	"bytes"
	"sort"
	"sync/atomic"
)

// indexEntry is one (key, file-offset) pair within a single SSTable's
// dense index.
type indexEntry struct {
	Key    []byte
	Offset int64
}

// L0Index is the per-SSTable in-memory index: the offsets vector is
// sorted by key ascending with at most one entry per key, the offset
// of the latest write to that key within the table.
type L0Index struct {
	Path    string
	Reader  sizedReaderAt
	Entries []indexEntry

	// bloom is an in-memory-only enrichment: built at flush time and
	// rebuilt at recovery time by replaying the table, never persisted
	// to disk. It may say a key could be present when it isn't, but
	// never the reverse, so a negative result only ever skips work, it
	// never changes an answer. A nil filter is not consulted.
	bloom *BloomFilter
}

// buildIndexEntries sorts pairs by key ascending, then by offset
// descending for duplicates, then drops all but the first (largest
// offset, i.e. latest-within-file) occurrence of each key. The input
// slice is consumed: the deduplicated result is built in place and
// shares its backing array.
func buildIndexEntries(pairs []indexEntry) []indexEntry {
	sort.Slice(pairs, func(i, j int) bool {
		if c := bytes.Compare(pairs[i].Key, pairs[j].Key); c != 0 {
			return c < 0
		}
		return pairs[i].Offset > pairs[j].Offset
	})

	deduped := pairs[:0]
	for i, p := range pairs {
		if i == 0 || !bytes.Equal(p.Key, deduped[len(deduped)-1].Key) {
			deduped = append(deduped, p)
		}
	}
	return deduped
}

// find returns the offset of key in the index, if present.
func (idx *L0Index) find(key []byte) (int64, bool) {
	n := len(idx.Entries)
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(idx.Entries[i].Key, key) >= 0
	})
	if i < n && bytes.Equal(idx.Entries[i].Key, key) {
		return idx.Entries[i].Offset, true
	}
	return 0, false
}

// lowerBound returns the index of the first entry whose key is >=
// prefix.
func (idx *L0Index) lowerBound(prefix []byte) int {
	n := len(idx.Entries)
	return sort.Search(n, func(i int) bool {
		return bytes.Compare(idx.Entries[i].Key, prefix) >= 0
	})
}

// indexNode is one link in the SSTableManager's lock-free, newest-first
// index list. next is stored once, before the node is published at the
// list head by compare-and-swap, and is never changed afterwards
// (nodes are never removed while the engine is open).
type indexNode struct {
	index *L0Index
	next  atomic.Pointer[indexNode]
}

// indexList is the lock-free singly-linked list of L0Index nodes,
// head = newest SSTable. Prepend is the only mutation; traversal is
// read-only and never blocks behind a prepend.
type indexList struct {
	head atomic.Pointer[indexNode]
}

// prepend adds idx to the head of the list using a compare-and-swap
// loop, per the non-negotiable lock-free design (see DESIGN.md).
func (l *indexList) prepend(idx *L0Index) {
	n := &indexNode{index: idx}
	for {
		old := l.head.Load()
		n.next.Store(old)
		if l.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// forEach walks the list from head (newest) to tail (oldest), calling
// fn for each node until fn returns false or the list is exhausted.
func (l *indexList) forEach(fn func(*L0Index) bool) {
	for n := l.head.Load(); n != nil; n = n.next.Load() {
		if !fn(n.index) {
			return
		}
	}
}

// count returns the number of tables currently in the list.
func (l *indexList) count() int {
	n := 0
	l.forEach(func(*L0Index) bool {
		n++
		return true
	})
	return n
}
