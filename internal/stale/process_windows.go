//go:build windows

package stale

// IsProcessAlive conservatively reports true on Windows, where PID
// liveness cannot be cheaply checked without extra dependencies; TTL
// expiry (§4.2.1) is the safety net on this platform.
func IsProcessAlive(_ int) bool {
	return true
}
