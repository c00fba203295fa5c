package scope

import (
	"fmt"
	"os"

	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// ForceBreak is the operator escape hatch: unconditionally removes
// target's lockfile regardless of expiry or liveness. It does not touch
// the target, any backup, or any shadow file — it only clears the
// mutual-exclusion marker, so a subsequent Open can proceed. Intended
// for manual intervention (a CLI "doctor"/"unlock" command), not for use
// by any automated caller that could race a legitimate holder.
func ForceBreak(target string, opts ...Option) error {
	o := resolve(opts)

	if o.RemotePath != nil {
		lockPath := o.RemotePath.SiblingPath(mustResolve(o.RemotePath) + ".lock")
		if err := lockPath.Unlink(); err != nil {
			return fmt.Errorf("scope: force-break remote lockfile: %w", err)
		}
		o.emit(auditEventForceBreak, target, "remote")
		return nil
	}

	path := pathabs.NewLocal(target)
	abs, err := path.Resolve()
	if err != nil {
		return fmt.Errorf("scope: resolve target: %w", err)
	}
	lockpath := abs + ".lock"
	if err := os.Remove(lockpath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scope: force-break lockfile: %w", err)
	}
	o.emit(auditEventForceBreak, abs, "local")
	return nil
}

func mustResolve(p pathabs.Path) string {
	resolved, err := p.Resolve()
	if err != nil {
		return ""
	}
	return resolved
}
