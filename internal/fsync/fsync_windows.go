//go:build windows

package fsync

import (
	"os"

	"golang.org/x/sys/windows"
)

// File flushes f's data to stable storage.
//
// FlushFileBuffers ensures all file data and metadata reach the disk.
func File(f *os.File) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
