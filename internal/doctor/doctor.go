// Package doctor runs health checks against a protected target's
// directory: is it writable, is the clock sane, and are there orphaned
// sidecar files (.lock/.backup/.result) left behind by a crash.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/nikolasavic/protectedfile/internal/netfs"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckResult is one health check's outcome.
type CheckResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Overall folds a set of results to the worst status present.
func Overall(results []CheckResult) Status {
	for _, r := range results {
		if r.Status == StatusFail {
			return StatusFail
		}
	}
	for _, r := range results {
		if r.Status == StatusWarn {
			return StatusWarn
		}
	}
	return StatusOK
}

// CheckWritable verifies the target's directory accepts a fresh file
// with the exclusive-create flag a Protected Scope's lockfile needs.
func CheckWritable(target string) CheckResult {
	result := CheckResult{Name: "writable"}

	dir := filepath.Dir(target)
	probe := filepath.Join(dir, ".protectedfile-doctor-probe")
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			_ = os.Remove(probe)
			f, err = os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		}
		if err != nil {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("cannot create probe file in %s: %v", dir, err)
			return result
		}
	}
	_ = f.Close()
	if err := os.Remove(probe); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot remove probe file: %v", err)
		return result
	}

	result.Status = StatusOK
	return result
}

// CheckClock flags an implausible system clock, since lockfile expiry
// (free_after) and sidelined-result timestamps both trust it.
func CheckClock() CheckResult {
	result := CheckResult{Name: "clock"}
	year := time.Now().Year()

	switch {
	case year < 2024:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("system clock appears to be in the past (year %d)", year)
	case year > 2100:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("system clock appears to be far in the future (year %d)", year)
	default:
		result.Status = StatusOK
	}
	return result
}

// CheckOrphans scans target's directory for leftover .lock, .backup, or
// .result sidecars whose scope crashed before cleanup could run.
func CheckOrphans(target string) CheckResult {
	result := CheckResult{Name: "orphans"}

	dir := filepath.Dir(target)
	base := filepath.Base(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s: %v", dir, err)
		return result
	}

	var found []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if name == base {
			continue
		}
		if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".backup") || strings.Contains(name, ".result") {
			found = append(found, name)
		}
	}

	if len(found) == 0 {
		result.Status = StatusOK
		return result
	}
	result.Status = StatusWarn
	result.Message = fmt.Sprintf("found %d orphaned sidecar file(s): %s", len(found), strings.Join(found, ", "))
	return result
}

// CheckFilesystem reports whether target's directory sits on a network
// filesystem. The protocol runs identically either way; this is purely
// informational since O_EXCL and rename are not reliably atomic there.
func CheckFilesystem(target string) CheckResult {
	result := CheckResult{Name: "filesystem"}

	network, name := netfs.Check(filepath.Dir(target))
	if !network {
		result.Status = StatusOK
		return result
	}
	result.Status = StatusWarn
	result.Message = fmt.Sprintf("target resides on a network filesystem (%s); claim/publish are best-effort there", name)
	return result
}

// CheckAdvisoryLock confirms the directory's filesystem honors OS-level
// advisory locks. The core claim protocol never relies on flock(2) — it
// uses exclusive-create plus a read-back — but a directory that can't
// even hold an advisory lock is a signal the filesystem's semantics are
// unusual enough to distrust for exclusive-create too.
func CheckAdvisoryLock(target string) CheckResult {
	result := CheckResult{Name: "advisory-lock"}

	probe := filepath.Join(filepath.Dir(target), ".protectedfile-doctor-probe.flock")
	fl := flock.New(probe)
	defer func() {
		_ = fl.Unlock()
		_ = os.Remove(probe)
	}()

	locked, err := fl.TryLock()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("advisory lock not supported on %s: %v", filepath.Dir(target), err)
		return result
	}
	if !locked {
		result.Status = StatusWarn
		result.Message = "advisory lock probe file already held"
		return result
	}

	result.Status = StatusOK
	return result
}

// Run executes every check against target.
func Run(target string) []CheckResult {
	return []CheckResult{
		CheckWritable(target),
		CheckClock(),
		CheckOrphans(target),
		CheckFilesystem(target),
		CheckAdvisoryLock(target),
	}
}
