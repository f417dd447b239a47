// Package store exposes lsmio's public façade: a storage_type-dispatched
// Backend wrapping the native engine (pkg/lsm), plus the metadata
// namespace and batching-config pass-through the spec describes.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tybulut/lsmio/pkg/config"
	"github.com/tybulut/lsmio/pkg/lsm"
	"github.com/tybulut/lsmio/pkg/logging"
	"github.com/tybulut/lsmio/pkg/metrics"
)

// ErrStorageTypeNotImplemented is returned by Open when config names a
// backend other than Native. LevelDB-like and RocksDB-like are valid
// configuration values (see pkg/config) but have no adapter in this
// module; see DESIGN.md for why they're accepted-but-rejected rather
// than silently falling back to Native.
var ErrStorageTypeNotImplemented = errors.New("store: storage_type not implemented")

// Backend is the tagged-variant contract every storage_type
// implementation satisfies. Native is the only one actually
// implemented here; LevelDB-like and RocksDB-like are reserved names
// for collaborators this module doesn't ship.
type Backend interface {
	Put(key, value []byte, flushHint bool) bool
	Delete(key []byte, flushHint bool) bool
	Get(key []byte) ([]byte, bool)
	GetPrefix(prefix []byte) []lsm.KV
	WriteBarrier() bool
	ReadBarrier() bool
	Close()
	Counters() lsm.Counters
	SSTableCount() int
	ImmutableQueueLen() int
}

// Store is the public façade: put/delete/get/get_prefix/barriers plus
// the metadata variants, all delegating to a dispatched Backend.
type Store struct {
	backend   Backend
	cfg       config.Config
	metrics   *metrics.Registry
	SessionID string
}

// Open validates cfg, dispatches on cfg.StorageType, and opens the
// selected backend rooted at dbPath.
func Open(dbPath string, overwrite bool, cfg config.Config, logger logging.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.StorageType {
	case config.Native, "":
		engine, err := lsm.Open(dbPath, overwrite, lsm.Config{
			WriteBufferSize:   cfg.WriteBufferSize,
			WriteBufferNumber: cfg.WriteBufferNumber,
			FilePoolSize:      cfg.FilePoolSize,
			PreAllocateBytes:  preAllocateHint(cfg),
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}

		sessionID := uuid.New().String()
		if logger != nil {
			logger.Info("store opened", logging.String("session_id", sessionID), logging.Path(dbPath))
		}

		s := &Store{backend: &nativeBackend{engine: engine, alwaysFlush: cfg.AlwaysFlush}, cfg: cfg, SessionID: sessionID}
		if cfg.MetricsEnabled {
			s.metrics = metrics.NewRegistry()
			// Recovery already ran inside lsm.Open; seed the gauges with
			// whatever it found instead of leaving them at zero until the
			// first barrier.
			s.metrics.MirrorEngineCounters(engine.Counters())
			s.metrics.SetSSTableCount(engine.SSTableCount())
			s.metrics.SetImmutableQueued(engine.ImmutableQueueLen())
		}
		return s, nil

	case config.LevelDBLike, config.RocksDBLike:
		return nil, fmt.Errorf("%w: %s", ErrStorageTypeNotImplemented, cfg.StorageType)

	default:
		return nil, fmt.Errorf("%w: %s", ErrStorageTypeNotImplemented, cfg.StorageType)
	}
}

// preAllocateHint turns the boolean pre_allocate option into a byte
// hint for the FilePool: a fixed size when enabled, zero (no
// reservation) otherwise.
func preAllocateHint(cfg config.Config) int64 {
	if !cfg.PreAllocate {
		return 0
	}
	if cfg.TransferSize > 0 {
		return int64(cfg.TransferSize)
	}
	return int64(cfg.WriteBufferSize)
}

// Put stores key/value. A truthy flushHint, or the always_flush option,
// adds an implicit WriteBarrier after the write lands.
func (s *Store) Put(key, value []byte, flushHint bool) bool {
	ok := s.backend.Put(key, value, flushHint)
	if s.metrics != nil {
		s.metrics.RecordStorageOperation("put", statusOf(ok), 0)
		s.metrics.MirrorEngineCounters(s.backend.Counters())
	}
	return ok
}

// Delete removes key (logically, via a tombstone).
func (s *Store) Delete(key []byte, flushHint bool) bool {
	ok := s.backend.Delete(key, flushHint)
	if s.metrics != nil {
		s.metrics.RecordStorageOperation("delete", statusOf(ok), 0)
		s.metrics.MirrorEngineCounters(s.backend.Counters())
	}
	return ok
}

// Get resolves key.
func (s *Store) Get(key []byte) ([]byte, bool) {
	v, ok := s.backend.Get(key)
	if s.metrics != nil {
		s.metrics.RecordStorageOperation("get", statusOf(ok), 0)
		s.metrics.MirrorEngineCounters(s.backend.Counters())
	}
	return v, ok
}

// GetPrefix returns every live key starting with prefix, ascending.
func (s *Store) GetPrefix(prefix []byte) []lsm.KV {
	kvs := s.backend.GetPrefix(prefix)
	if s.metrics != nil {
		s.metrics.RecordStorageOperation("get_prefix", "success", 0)
		s.metrics.MirrorEngineCounters(s.backend.Counters())
	}
	return kvs
}

// WriteBarrier waits for all writes issued before this call to become
// durable, i.e. until any flush it triggered has completed. The gauges
// are only meaningful at a point where the on-disk/queued state has
// settled, so they're refreshed here rather than on every put/delete.
func (s *Store) WriteBarrier() bool {
	ok := s.backend.WriteBarrier()
	if s.metrics != nil {
		s.metrics.MirrorEngineCounters(s.backend.Counters())
		s.metrics.SetSSTableCount(s.backend.SSTableCount())
		s.metrics.SetImmutableQueued(s.backend.ImmutableQueueLen())
	}
	return ok
}

// ReadBarrier is a no-op, present for collaborators' remote-aggregation
// paths.
func (s *Store) ReadBarrier() bool {
	return s.backend.ReadBarrier()
}

// Close releases the backend.
func (s *Store) Close() {
	s.backend.Close()
}

// MetaPut, MetaGet and MetaGetAll are the metadata variants: they
// simply prefix the key with lsm.MetadataPrefix and delegate.
func (s *Store) MetaPut(key, value []byte) bool {
	return s.Put(metaKey(key), value, false)
}

func (s *Store) MetaGet(key []byte) ([]byte, bool) {
	return s.Get(metaKey(key))
}

func (s *Store) MetaGetAll(prefix []byte) []lsm.KV {
	kvs := s.GetPrefix(metaKey(prefix))
	out := make([]lsm.KV, len(kvs))
	for i, kv := range kvs {
		out[i] = lsm.KV{Key: kv.Key[len(lsm.MetadataPrefix):], Value: kv.Value}
	}
	return out
}

func metaKey(key []byte) []byte {
	return append([]byte(lsm.MetadataPrefix), key...)
}

func statusOf(ok bool) string {
	if ok {
		return "success"
	}
	return "not_found"
}
