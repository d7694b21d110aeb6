//go:build !linux && !freebsd && !darwin && !windows

package fsync

import "os"

// File flushes f's data to stable storage via plain fsync.
func File(f *os.File) error {
	return f.Sync()
}
