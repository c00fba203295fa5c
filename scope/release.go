package scope

import (
	"os"

	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// Release tears down the scope's held resources without validating or
// publishing anything: closes the stream, unlinks the shadow file,
// unlinks the backup unless keepBackup was requested, unlinks the
// lockfile, and deregisters from the process-wide registry. It is
// idempotent and never returns a visible failure to the caller — §4.7
// calls this path "extremely defensive": a second Release, or a Release
// after a failed acquire, must be safe.
func (s *Scope) Release() {
	s.release()
}

func (s *Scope) release() {
	if s.released {
		return
	}
	s.released = true

	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
	if s.useShadow && s.temppath != "" {
		_ = os.Remove(s.temppath)
	}
	if s.backuppath != "" && !s.keepBackup {
		_ = os.Remove(s.backuppath)
	}
	if s.acquired {
		if pathabs.IsRemote(s.path) && s.lockPath != nil {
			_ = s.lockPath.Unlink()
		} else {
			_ = os.Remove(s.lockpath)
		}
	}
	deregisterScope(s)
}
