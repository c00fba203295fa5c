// Package tempdir is the process-wide temporary-directory registrar
// referenced in spec.md §1 as an external collaborator. No host
// application supplies one here, so this is a minimal, lazily
// initialized stand-in: one directory per process, cleaned up by the
// same exit path that drains the scope registry.
package tempdir

import (
	"os"
	"sync"
)

var (
	once sync.Once
	dir  string
	err  error
)

// Dir returns the process's shared scratch directory, creating it on
// first use.
func Dir() (string, error) {
	once.Do(func() {
		dir, err = os.MkdirTemp("", "protectedfile-")
	})
	return dir, err
}

// Cleanup removes the process's scratch directory, if one was ever
// created. Safe to call even if Dir was never called, and safe to call
// more than once.
func Cleanup() {
	if dir == "" {
		return
	}
	_ = os.RemoveAll(dir)
}

// reset is a test-only hook letting tests force a fresh directory.
func reset() {
	once = sync.Once{}
	dir = ""
	err = nil
}
