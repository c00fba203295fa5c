package scope

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nikolasavic/protectedfile/internal/integrity"
	"github.com/nikolasavic/protectedfile/internal/lockrecord"
	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// Close runs §4.6's Exiting sequence: revalidate ownership, detect
// external corruption against the baseline hash, publish the shadow
// file over the target (or restore the backup and sideline the shadow
// on corruption/ownership loss), then release unconditionally.
//
// A read-only scope just releases: ownership is not revalidated and the
// hash is not rechecked, even when a baseline was recorded at Open.
func (s *Scope) Close() error {
	defer s.release()

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			return fmt.Errorf("scope: close stream: %w", err)
		}
		s.stream = nil
	}

	if s.readonly {
		return nil
	}

	if err := s.revalidateOwnership(); err != nil {
		return err
	}

	if s.checkHash && s.hasBaseline {
		changed, _, err := (integrity.Baseline{Size: s.baselineSize, Hash: s.baselineHash}).Changed(s.target)
		if err != nil {
			return fmt.Errorf("scope: rehash at exit: %w", err)
		}
		if changed {
			return s.recoverFromCorruption()
		}
	}

	if s.useShadow {
		if err := s.publishShadow(); err != nil {
			return err
		}
	}

	s.opts.emit(auditEventPublished, s.target, fmt.Sprintf("nesting=%d", s.nestingLevel))
	return nil
}

// revalidateOwnership re-reads the lockfile and confirms it still names
// this scope's identity — guarding against the lockfile having been
// reclaimed out from under us while we worked (§4.2.2).
func (s *Scope) revalidateOwnership() error {
	rec, err := s.readLockRecord()
	if err != nil || !rec.Matches(s.id) {
		return s.recoverFromOwnershipLoss()
	}
	return nil
}

// readLockRecord reads the current lockfile body regardless of backend:
// a direct file read on local disk, or an object download for a scope
// opened with WithRemotePath.
func (s *Scope) readLockRecord() (lockrecord.Record, error) {
	if !pathabs.IsRemote(s.path) {
		return lockrecord.Read(s.lockpath)
	}
	var rec lockrecord.Record
	bw, ok := pathabs.SupportsBodyWriter(s.lockPath)
	if !ok {
		return rec, fmt.Errorf("scope: remote backend cannot read lockfile body")
	}
	data, err := bw.ReadBody()
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", lockrecord.ErrUnparseable, err)
	}
	return rec, nil
}

// recoverFromOwnershipLoss restores the backup over the target, if one
// was taken, and reports a RecoveredError rather than silently
// continuing — a write under a lockfile we no longer own must not be
// trusted as ours.
func (s *Scope) recoverFromOwnershipLoss() error {
	restored := false
	if s.backuppath != "" {
		if err := os.Rename(s.backuppath, s.target); err == nil {
			restored = true
		}
	}
	resultAt := s.sidelineShadow()
	s.opts.emit(auditEventOwnershipLost, s.target, fmt.Sprintf("restored=%v", restored))
	return &RecoveredError{Kind: ErrOwnershipLost, Restored: restored, ResultAt: resultAt}
}

// recoverFromCorruption restores the backup over the target and
// sidelines the shadow file to "<target>.__<timestamp>.result" so the
// caller's in-flight edits aren't lost, only rejected from publication.
func (s *Scope) recoverFromCorruption() error {
	restored := false
	if s.backuppath != "" {
		if err := os.Rename(s.backuppath, s.target); err == nil {
			restored = true
		}
	}
	resultAt := s.sidelineShadow()
	s.opts.emit(auditEventCorruption, s.target, fmt.Sprintf("restored=%v result=%q", restored, resultAt))
	return &RecoveredError{Kind: ErrCorruptionDetected, Restored: restored, ResultAt: resultAt}
}

// sidelineShadow moves the shadow file to a ".result" sidecar stamped
// with the exit time, so the rejected edits remain recoverable by a
// human instead of being discarded outright.
func (s *Scope) sidelineShadow() string {
	if !s.useShadow || s.temppath == "" {
		return ""
	}
	if _, err := os.Stat(s.temppath); err != nil {
		return ""
	}
	resultAt := fmt.Sprintf("%s.__%s.result", s.target, time.Now().UTC().Format("20060102T150405Z"))
	shadow := pathabs.NewLocal(s.temppath)
	if err := shadow.CopyTo(resultAt); err != nil {
		return ""
	}
	_ = shadow.Unlink()
	return resultAt
}

// publishShadow copies the shadow file's contents over the target and
// unlinks the shadow. Copy-then-unlink, not rename: the shadow lives in
// the process-wide temp directory, which is ordinarily a different
// filesystem than the target's, so a rename isn't guaranteed atomic (or
// even possible) across the boundary.
func (s *Scope) publishShadow() error {
	shadow := pathabs.NewLocal(s.temppath)
	if err := shadow.CopyTo(s.target); err != nil {
		return fmt.Errorf("scope: publish shadow: %w", err)
	}
	if err := shadow.Unlink(); err != nil {
		return fmt.Errorf("scope: unlink shadow after publish: %w", err)
	}
	return nil
}
