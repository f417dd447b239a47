package lsm

import "errors"

var (
	// ErrInvalidConfig is returned by Open when Config.WriteBufferSize is
	// not positive.
	ErrInvalidConfig = errors.New("lsm: invalid configuration")

	// ErrPoolShutdown is returned by FilePool.Acquire when the pool has
	// been shut down while empty.
	ErrPoolShutdown = errors.New("lsm: file pool shut down")

	errIncompatibleBloomFilters = errors.New("lsm: incompatible bloom filters")
)
