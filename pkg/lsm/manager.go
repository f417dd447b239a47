package lsm

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/exp/mmap"

	"github.com/tybulut/lsmio/pkg/logging"
	"github.com/tybulut/lsmio/pkg/pools"
)

// defaultBloomFalsePositiveRate is the rate new per-table Bloom
// filters are sized for.
const defaultBloomFalsePositiveRate = 0.01

// SSTableManager owns the on-disk SSTables: it recovers the
// newest-first index list from a cold directory, writes new tables as
// memtables are flushed, and serves point and prefix lookups against
// the list.
type SSTableManager struct {
	dir    string
	logger logging.Logger

	list indexList

	pool   *FilePool
	closer *FileCloser
}

// OpenSSTableManager scans dir for existing SSTables matching the
// L0-NNNNNN.sst naming convention, rebuilds each one's dense index and
// in-memory Bloom filter by replaying its records, and prepends them
// to the index list oldest-last so the final head order is
// newest-first. It then starts a FilePool (beginning at max_id+1) and
// a FileCloser sized to the pool.
func OpenSSTableManager(dir string, filePoolSize int, preAllocateBytes int64, logger logging.Logger) (*SSTableManager, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type idFile struct {
		id   uint64
		name string
	}
	var found []idFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := ParseSSTableID(e.Name()); ok {
			found = append(found, idFile{id: id, name: e.Name()})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })

	m := &SSTableManager{dir: dir, logger: logger}

	var maxID uint64
	for _, f := range found {
		if f.id > maxID {
			maxID = f.id
		}
		path := filepath.Join(dir, f.name)
		idx, err := m.recoverTable(path)
		if err != nil {
			logger.Error("lsm: recovering sstable failed, skipping", logging.Path(path), logging.Error(err))
			continue
		}
		m.list.prepend(idx)
	}

	startID := uint64(0)
	if len(found) > 0 {
		startID = maxID + 1
	}

	m.pool = NewFilePool(dir, "L0-", ".sst", filePoolSize, startID, preAllocateBytes)
	m.closer = NewFileCloser(filePoolSize)

	return m, nil
}

// recoverTable reads path fully, replays its records to build a dense
// (key, offset) index and an in-memory Bloom filter, and opens an
// mmap reader for subsequent point reads. A torn trailing record is
// tolerated: recovery simply stops at the first header-read failure.
func (m *SSTableManager) recoverTable(path string) (*L0Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pairs []indexEntry
	var keys [][]byte
	scanRecords(data, func(key, value []byte, offset int64) bool {
		keyCopy := append([]byte(nil), key...)
		pairs = append(pairs, indexEntry{Key: keyCopy, Offset: offset})
		keys = append(keys, keyCopy)
		return true
	})

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	bloom := NewBloomFilter(len(keys), defaultBloomFalsePositiveRate)
	for _, k := range keys {
		bloom.Add(k)
	}

	return &L0Index{
		Path:    path,
		Reader:  reader,
		Entries: buildIndexEntries(pairs),
		bloom:   bloom,
	}, nil
}

// FlushMemtable writes mt's records out as a new immutable SSTable. A
// no-op, successful, on an empty memtable. reuseBuffer, if non-nil, is
// the engine's shared serialization buffer; it is reset and reused
// rather than a fresh buffer being allocated per flush.
func (m *SSTableManager) FlushMemtable(mt *Memtable, reuseBuffer *pools.BufferBuilder) error {
	if mt.Empty() {
		return nil
	}

	path, _, file, err := m.pool.Acquire()
	if err != nil {
		return err
	}

	bb := reuseBuffer
	if bb == nil {
		bb = pools.NewBufferBuilder(mt.SizeBytes())
	} else {
		bb.Reset()
	}

	data := mt.Data()
	pairs := make([]indexEntry, 0, len(data))
	bloom := NewBloomFilter(len(data), defaultBloomFalsePositiveRate)

	for _, e := range data {
		offset := appendRecord(bb, e.Key, e.Value)
		pairs = append(pairs, indexEntry{Key: e.Key, Offset: int64(offset)})
		bloom.Add(e.Key)
	}

	if _, err := file.Write(bb.Bytes()); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}

	m.closer.ScheduleClose(file)

	reader, err := mmap.Open(path)
	if err != nil {
		return err
	}

	idx := &L0Index{
		Path:    path,
		Reader:  reader,
		Entries: buildIndexEntries(pairs),
	}
	idx.bloom = bloom
	m.list.prepend(idx)

	return nil
}

// Get resolves key against the index list from newest to oldest,
// binary-searching each table's dense index and, on a hit, reading
// the record with a single pread. It returns the first match anywhere
// in the list, or ok==false if none.
func (m *SSTableManager) Get(key []byte) (value []byte, ok bool) {
	m.list.forEach(func(idx *L0Index) bool {
		if idx.bloom != nil && !idx.bloom.MayContain(key) {
			return true
		}
		offset, found := idx.find(key)
		if !found {
			return true
		}
		k, v, err := readRecordAtSingle(idx.Reader, offset)
		if err != nil || !bytes.Equal(k, key) {
			return true
		}
		value, ok = v, true
		return false
	})
	return value, ok
}

// Scan performs a union scan for prefix across every table newest to
// oldest, applying newest-wins and tombstone suppression: a key
// already present in results or deleted is skipped entirely, since an
// older table can never override a newer one. It reports whether any
// key was observed in any table.
func (m *SSTableManager) Scan(prefix []byte, results map[string][]byte, deleted map[string]struct{}) bool {
	observed := false

	m.list.forEach(func(idx *L0Index) bool {
		start := idx.lowerBound(prefix)
		for i := start; i < len(idx.Entries); i++ {
			entry := idx.Entries[i]
			if !bytes.HasPrefix(entry.Key, prefix) {
				break
			}
			k := string(entry.Key)
			if _, inResults := results[k]; inResults {
				continue
			}
			if _, inDeleted := deleted[k]; inDeleted {
				continue
			}

			_, v, err := readRecordAtSingle(idx.Reader, entry.Offset)
			if err != nil {
				continue
			}
			observed = true
			if bytes.Equal(v, Tombstone) {
				deleted[k] = struct{}{}
			} else {
				results[k] = v
			}
		}
		return true
	})

	return observed
}

// Count returns the number of SSTables currently registered in the
// index list.
func (m *SSTableManager) Count() int {
	return m.list.count()
}

// Close releases the file pool and file closer. No flush may be in
// flight when this is called.
func (m *SSTableManager) Close() {
	m.pool.Close()
	m.closer.Close()

	m.list.forEach(func(idx *L0Index) bool {
		if r, ok := idx.Reader.(*mmap.ReaderAt); ok {
			_ = r.Close()
		}
		return true
	})
}
