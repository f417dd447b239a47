// Package lsm implements the Bitcask-flavored log-structured merge engine
// at the core of lsmio: a memtable, a bounded queue of immutable memtables
// awaiting flush, a background flusher that emits immutable on-disk
// SSTables, and a lock-free per-table index list for point and prefix
// lookups.
package lsm

// Tombstone is the sentinel value that marks a record as deleted. Live
// writes must not use this exact byte string as a value.
var Tombstone = []byte("__LSM_TOMBSTONE_v1__")

// MetadataPrefix marks keys reserved for the store façade's metadata
// namespace. User keys must avoid it; the engine itself does not enforce
// the restriction (see DESIGN.md, Open Questions).
const MetadataPrefix = "__lsmio_md::"
