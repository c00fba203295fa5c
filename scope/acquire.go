package scope

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/nikolasavic/protectedfile/internal/lockrecord"
	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// acquire runs §4.2's Acquire protocol against s.lockpath, blocking
// (subject to o.Context cancellation) until s owns the lockfile.
func (s *Scope) acquire(o Options) error {
	wait := o.Wait
	if s.nestingLevel > 0 {
		wait = time.Duration(NestedWaitSeconds * float64(time.Second))
	}
	maxLockTime := o.MaxLockTime
	if s.nestingLevel > 0 {
		maxLockTime = time.Duration(NestedMaxLockTimeSeconds * float64(time.Second))
	}

	remote := pathabs.IsRemote(s.path)

	for {
		var (
			ok  bool
			err error
		)
		if remote {
			ok, err = s.tryClaimRemote(maxLockTime, wait)
		} else {
			ok, err = s.tryClaimLocal(maxLockTime, wait)
		}
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		// Race lost: the lockfile already existed. Sleep, optionally
		// attempt reclaim, then retry from the top — first-come-
		// first-served is not guaranteed, only liveness (§4.2.1).
		if err := sleepJittered(o.Context, wait, 1.0); err != nil {
			return err
		}

		if maxLockTime > 0 {
			if s.nestingLevel >= MaxNesting {
				o.emit(auditEventTooManyLocks, s.target, fmt.Sprintf("nesting=%d", s.nestingLevel))
				return ErrTooManyLocks
			}
			if err := s.tryReclaim(o); err != nil {
				return err
			}
		}
	}
}

// tryClaimLocal attempts the exclusive-create + double-check of §4.2
// steps 1–2 on local disk. ok=true means s now owns the lockfile.
// ok=false, err=nil means the lockfile already existed (race lost,
// retry from the caller's loop). Any other error is fatal.
func (s *Scope) tryClaimLocal(maxLockTime, wait time.Duration) (ok bool, err error) {
	f, err := os.OpenFile(s.lockpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // lockpath is scope-owned
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		if os.IsPermission(err) {
			return false, ErrPermissionDenied
		}
		return false, fmt.Errorf("scope: create lockfile: %w", err)
	}

	rec := s.newRecord(maxLockTime)
	if err := lockrecord.Write(s.lockpath, rec); err != nil {
		_ = f.Close()
		_ = os.Remove(s.lockpath)
		return false, fmt.Errorf("scope: write lockfile: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("scope: close lockfile: %w", err)
	}

	// Double-check (§4.2 step 2): the jittered sleep is load-bearing —
	// it gives every racing writer time to have flushed its own claim
	// before we decide whether ours is still the one on disk.
	if err := sleepJittered(context.Background(), wait, 1.0); err != nil {
		return false, err
	}

	got, err := lockrecord.Read(s.lockpath)
	if err != nil {
		// Unreadable/garbled: someone else is mid-write. Treat as lost,
		// not fatal — the caller's loop will retry.
		return false, nil
	}
	if !got.Matches(s.id) {
		return false, nil
	}
	return true, nil
}

// tryClaimRemote implements §4.2 item 4: object storage has no O_EXCL
// primitive, so "claim" means touch-if-absent, then verify by copy-back,
// falling back to elevated credentials on a permission error.
func (s *Scope) tryClaimRemote(maxLockTime, wait time.Duration) (bool, error) {
	exists, err := s.lockPath.Exists()
	if err != nil {
		return false, fmt.Errorf("scope: remote lockfile probe: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := s.lockPath.Touch(); err != nil {
		if !pathabs.IsAccessDenied(err) {
			return false, fmt.Errorf("scope: remote touch: %w", err)
		}
		elevated, supports := pathabs.SupportsElevatedTouch(s.lockPath)
		if !supports {
			return false, ErrPermissionDenied
		}
		if err := elevated.TouchWithElevatedCredentials(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}

	rec := s.newRecord(maxLockTime)
	body, err := lockrecord.Marshal(rec)
	if err != nil {
		return false, err
	}
	writer, supports := pathabs.SupportsBodyWriter(s.lockPath)
	if !supports {
		return false, fmt.Errorf("scope: remote backend cannot write a lockfile body")
	}
	if err := writer.WriteBody(body); err != nil {
		return false, fmt.Errorf("scope: publish remote lockfile: %w", err)
	}

	// Double-check (§4.2 step 2), same as the local path: give any
	// racing claimant time to have published its own record first.
	if err := sleepJittered(context.Background(), wait, 1.0); err != nil {
		return false, err
	}

	data, err := writer.ReadBody()
	if err != nil {
		return false, nil //nolint:nilerr // copy-back failure: treat as lost race, retry
	}
	var got lockrecord.Record
	if err := json.Unmarshal(data, &got); err != nil || !got.Matches(s.id) {
		return false, nil
	}
	return true, nil
}

func (s *Scope) newRecord(maxLockTime time.Duration) lockrecord.Record {
	freeAfter := float64(lockrecord.NoExpiry)
	if maxLockTime > 0 {
		freeAfter = nowFunc() + maxLockTime.Seconds()
	}
	return lockrecord.FromIdentity(s.id, freeAfter)
}

// sleepJittered sleeps uniform(base*0.6*factor, base*1.4*factor),
// respecting ctx cancellation. Every current caller passes factor 1.0.
func sleepJittered(ctx context.Context, base time.Duration, factor float64) error {
	if base <= 0 {
		return nil
	}
	lo := 0.6 * factor * float64(base)
	hi := 1.4 * factor * float64(base)
	d := time.Duration(lo + rand.Float64()*(hi-lo)) //nolint:gosec // timing jitter, not security

	if ctx == nil {
		time.Sleep(d)
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
