//go:build !windows

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// unixMapper memory-maps the arena file using mmap(2)/munmap(2) directly,
// giving true zero-copy reads over the mapped region.
type unixMapper struct{}

// NewPlatformMapper returns the memory-mapper appropriate for this OS.
func NewPlatformMapper() platformMapper { return unixMapper{} }

func (unixMapper) mmap(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (unixMapper) munmap(data []byte) error {
	return unix.Munmap(data)
}
