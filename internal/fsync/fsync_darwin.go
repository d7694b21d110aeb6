//go:build darwin

package fsync

import (
	"os"

	"golang.org/x/sys/unix"
)

// File flushes f's data to stable storage.
//
// macOS fsync() only reaches the drive cache; F_FULLFSYNC forces the write
// to the physical disk. Fall back to fsync when the fcntl is unsupported
// (e.g. some network filesystems return ENOTSUP).
func File(f *os.File) error {
	if _, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0); err == nil {
		return nil
	}
	return unix.Fsync(int(f.Fd()))
}
