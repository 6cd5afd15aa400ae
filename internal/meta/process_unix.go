//go:build !windows

package meta

import (
	"errors"
	"os"
	"syscall"
)

// isProcessAlive checks whether pid still exists, by sending signal 0
// (which affects nothing but fails if the process is gone). EPERM means
// the process exists but belongs to another user, so it counts as alive.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
