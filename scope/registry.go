package scope

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nikolasavic/protectedfile/internal/tempdir"
)

// registry tracks every live Scope by target so a process-exit signal can
// release them all, mirroring the original implementation's atexit
// handler (a dict of open protected files keyed by path).
var registry = struct {
	mu     sync.Mutex
	scopes map[string]*Scope
}{scopes: make(map[string]*Scope)}

var registerSweeperOnce sync.Once

func registerScope(s *Scope) {
	registerSweeperOnce.Do(installSweeper)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.scopes[s.target] = s
}

func deregisterScope(s *Scope) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.scopes[s.target] == s {
		delete(registry.scopes, s.target)
	}
}

// installSweeper arms a signal handler that releases every still-held
// scope before the process dies, so an interrupt or SIGTERM doesn't leave
// a lockfile (or shadow/backup file) stranded — the Go analogue of the
// original's atexit-registered handler. A crash or SIGKILL bypasses it.
func installSweeper() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		sweep()
		os.Exit(1)
	}()
}

// sweep releases every currently-registered scope. Exported as Sweep for
// callers that want to invoke it from their own signal handling instead
// of relying on installSweeper.
func sweep() {
	registry.mu.Lock()
	scopes := make([]*Scope, 0, len(registry.scopes))
	for _, s := range registry.scopes {
		scopes = append(scopes, s)
	}
	registry.mu.Unlock()

	for _, s := range scopes {
		s.release()
	}
	tempdir.Cleanup()
}

// Sweep releases every live scope in this process and cleans up the
// shared temp directory. Safe to call from a caller's own shutdown path
// in addition to (or instead of) relying on the built-in signal handler.
func Sweep() {
	sweep()
}
