//go:build linux

package lsm

import (
	"os"
	"syscall"
)

// preallocate reserves size bytes for f using fallocate, which asks
// the filesystem for a contiguous extent where supported. If the
// filesystem or kernel doesn't support it, it falls back to a plain
// truncate so the file still has the right apparent size.
func preallocate(f *os.File, size int64) error {
	if err := syscall.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
		return f.Truncate(size)
	}
	return nil
}
