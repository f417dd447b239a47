package lsm

import (
	"bytes"
	"sync"
)

// Entry is a single key/value record as it lives in the Memtable and as it
// is framed on disk. A tombstone is represented by Value == Tombstone, not
// by a separate flag: the wire format carries no metadata beyond key and
// value.
type Entry struct {
	Key   []byte
	Value []byte
}

// IsTombstone reports whether this entry represents a deletion.
func (e Entry) IsTombstone() bool {
	return bytes.Equal(e.Value, Tombstone)
}

// Memtable is the in-memory write buffer: a plain append log, not a sorted
// map. Add is O(1); lookups scan backwards so the newest occurrence of a
// key always wins. This trades scan cost for put cost, which is the right
// trade for a write-dominant workload.
type Memtable struct {
	mu        sync.RWMutex
	data      []Entry
	sizeBytes int
}

// NewMemtable returns an empty Memtable.
func NewMemtable() *Memtable {
	return &Memtable{data: make([]Entry, 0, 256)}
}

// Add appends a record. Infallible: it cannot fail short of OOM.
func (mt *Memtable) Add(key, value []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.data = append(mt.data, Entry{Key: key, Value: value})
	mt.sizeBytes += len(key) + len(value)
}

// Get returns the value of the newest occurrence of key, if any. A hit
// whose value is the tombstone sentinel is returned as-is; the caller
// (the Engine) is the one that interprets it as "not found".
func (mt *Memtable) Get(key []byte) ([]byte, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	for i := len(mt.data) - 1; i >= 0; i-- {
		if bytes.Equal(mt.data[i].Key, key) {
			return mt.data[i].Value, true
		}
	}
	return nil, false
}

// Scan walks the log forward applying newest-wins semantics for every key
// that starts with prefix: a live value updates results and clears any
// prior tombstone marker, a tombstone updates deleted and clears any prior
// live result. A key already present in results or deleted when this
// memtable is scanned was decided by a newer layer (the caller scans
// layers newest-to-oldest) and is left alone for the rest of this call,
// even though records of that same key earlier in this same memtable's
// log still apply freely among themselves.
func (mt *Memtable) Scan(prefix []byte, results map[string][]byte, deleted map[string]struct{}) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	blocked := make(map[string]bool)
	for _, e := range mt.data {
		if !bytes.HasPrefix(e.Key, prefix) {
			continue
		}
		k := string(e.Key)
		isBlocked, seen := blocked[k]
		if !seen {
			_, inResults := results[k]
			_, inDeleted := deleted[k]
			isBlocked = inResults || inDeleted
			blocked[k] = isBlocked
		}
		if isBlocked {
			continue
		}

		if bytes.Equal(e.Value, Tombstone) {
			deleted[k] = struct{}{}
			delete(results, k)
			continue
		}
		results[k] = e.Value
		delete(deleted, k)
	}
}

// SizeBytes returns the exact accumulated size: sum of len(key)+len(value)
// over every record ever added, including superseded ones.
func (mt *Memtable) SizeBytes() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.sizeBytes
}

// Count returns the number of records appended, including superseded ones.
func (mt *Memtable) Count() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return len(mt.data)
}

// Empty reports whether the memtable has never had a record added to it.
func (mt *Memtable) Empty() bool {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return len(mt.data) == 0
}

// Data returns the append log in insertion order. Used by the flusher,
// which owns the memtable exclusively by the time it calls this (the
// engine has already sealed it), so no lock is taken here.
func (mt *Memtable) Data() []Entry {
	return mt.data
}
