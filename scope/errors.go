package scope

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds, one per row of spec.md §7.
var (
	// ErrFileNotFound is raised for a read-mode Open of a target that
	// does not exist, before any lockfile work begins.
	ErrFileNotFound = errors.New("scope: file not found")
	// ErrFileExists is raised for an exclusive-create Open of a target
	// that already exists, before any lockfile work begins.
	ErrFileExists = errors.New("scope: file already exists")
	// ErrNotImplemented is raised when the target is a directory or a
	// symlink — neither is a supported protected-scope target.
	ErrNotImplemented = errors.New("scope: directories and symlinks are not supported")
	// ErrPermissionDenied is raised when the lockfile cannot be created
	// or read and no remote-storage fallback applies.
	ErrPermissionDenied = errors.New("scope: permission denied")
	// ErrTooManyLocks is raised when recursive reclaim would exceed
	// MaxNesting.
	ErrTooManyLocks = errors.New("scope: too many nested lockfiles")
	// ErrCorruptionDetected means the target's hash changed while the
	// scope held the lock; restore was attempted.
	ErrCorruptionDetected = errors.New("scope: target changed during lock")
	// ErrOwnershipLost means the lockfile no longer validates as ours at
	// Exit; restore was attempted.
	ErrOwnershipLost = errors.New("scope: lock ownership lost")
)

// RecoveredError wraps a non-fatal failure that a scope already
// responded to (restore, sideline, release) before surfacing to the
// caller — per §7, "errors at Exit prefer recovery over propagation".
type RecoveredError struct {
	Kind     error  // one of ErrCorruptionDetected, ErrOwnershipLost
	Restored bool   // true if the backup was restored over the target
	ResultAt string // path of the .result sidecar, if one was written
}

func (e *RecoveredError) Error() string {
	return fmt.Sprintf("%v (restored=%v, result=%q)", e.Kind, e.Restored, e.ResultAt)
}

func (e *RecoveredError) Unwrap() error {
	return e.Kind
}
