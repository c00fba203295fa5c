// Package stale implements the §SUPPLEMENT process-liveness reclaim
// path: an independent, best-effort signal (alongside free_after
// expiry) for recognizing a crashed lockfile holder.
package stale

import (
	"os"

	"github.com/nikolasavic/protectedfile/internal/lockrecord"
)

// Reason names why a holder is considered gone.
type Reason string

const (
	ReasonExpired Reason = "expired" // free_after has elapsed
	ReasonDeadPID Reason = "dead_pid" // holder process no longer running (same host)
	ReasonNone    Reason = ""        // not stale
	ReasonUnknown Reason = "unknown" // cross-host: PID cannot be verified
)

// Result is the outcome of a staleness check.
type Result struct {
	Stale  bool
	Reason Reason
}

// Check evaluates whether rec's holder should be considered gone. now is
// the caller's wall-clock read (seconds since epoch), passed in rather
// than read internally so tests can simulate expiry deterministically.
func Check(rec lockrecord.Record, now float64) Result {
	if rec.Expired(now) {
		return Result{Stale: true, Reason: ReasonExpired}
	}

	hostname, err := os.Hostname()
	if err != nil || hostname != rec.Machine {
		return Result{Stale: false, Reason: ReasonUnknown}
	}

	if !IsProcessAlive(rec.PID) {
		return Result{Stale: true, Reason: ReasonDeadPID}
	}

	return Result{Stale: false, Reason: ReasonNone}
}
