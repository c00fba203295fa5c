//go:build unix

package stale

import "syscall"

// IsProcessAlive reports whether pid exists, via kill(pid, 0): no signal
// is actually delivered, only existence/permission is probed.
//
// EPERM means the process exists but we may not signal it — still alive.
// ESRCH means it does not exist.
func IsProcessAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
