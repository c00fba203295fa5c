package scope

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/nikolasavic/protectedfile/internal/lockrecord"
	"github.com/nikolasavic/protectedfile/internal/stale"
)

// tryReclaim implements §4.2.1: open a nested Scope over the lockfile
// itself (bounded by MaxNesting), and if the held record is stale — past
// its free_after expiry, or held by a process that no longer exists on
// this host — unlink the outer lockfile so the caller's next claim
// attempt can succeed.
func (s *Scope) tryReclaim(o Options) error {
	nested, err := open(s.lockpath, ModeReadWrite, resolveNested(o, s.nestingLevel+1))
	if err != nil {
		// The lockfile may have been released between our failed claim
		// and this reclaim attempt, or another holder is already
		// reclaiming it — either way this isn't fatal to the caller's
		// outer retry loop.
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}
		if errors.Is(err, ErrTooManyLocks) {
			// Recursion bottomed out at MaxNesting: further waiting won't
			// help, so give up rather than spin the outer loop forever.
			return ErrTooManyLocks
		}
		return nil //nolint:nilerr // reclaim is otherwise best-effort; outer loop keeps retrying
	}
	defer nested.release()

	rec, err := lockrecord.Read(s.lockpath)
	if err != nil {
		return nil //nolint:nilerr // garbled record: leave it for the next pass
	}

	now := nowFunc()
	result := stale.Check(rec, now)
	if !result.Stale {
		return nil
	}

	o.emit(auditEventReclaimed, s.target, fmt.Sprintf("reason=%s holder_pid=%d holder_host=%s", result.Reason, rec.PID, rec.Machine))
	if err := os.Remove(s.lockpath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scope: reclaim unlink: %w", err)
	}
	return nil
}

// resolveNested builds the Options a reclaim scope runs under: backup,
// hash checking and shadowing disabled, and nesting depth carried
// forward so MaxNesting is respected across recursive reclaims. Wait and
// MaxLockTime are copied unchanged; acquire replaces them with the
// reduced nested values whenever nestingLevel > 0.
func resolveNested(o Options, level int) Options {
	n := o
	n.nestingLevel = level
	n.UseTemporary = false
	n.BackupDuringLock = false
	n.Backup = false
	n.CheckHash = false
	return n
}
