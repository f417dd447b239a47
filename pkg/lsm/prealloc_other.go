//go:build !linux

package lsm

import "os"

// preallocate reserves size bytes for f via truncate, the only
// portable reservation primitive outside Linux's fallocate.
func preallocate(f *os.File, size int64) error {
	return f.Truncate(size)
}
