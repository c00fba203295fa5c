// Package lockrecord reads and writes the JSON payload stored in a
// scope's lockfile: holder identity plus an optional expiry.
package lockrecord

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikolasavic/protectedfile/internal/identity"
)

// NoExpiry is the sentinel FreeAfter value meaning "never preempt".
const NoExpiry = -1

// Record is the on-disk lockfile payload, matching the wire format:
// {pid, ran, machine, free_after}.
type Record struct {
	PID       int     `json:"pid"`
	Ran       uint64  `json:"ran"`
	Machine   string  `json:"machine"`
	FreeAfter float64 `json:"free_after"`
}

// ErrUnparseable is returned by Read when the file is empty, truncated,
// or not valid JSON — any of which must be treated as "not ours" rather
// than propagated, since a racing writer may simply not have flushed yet.
var ErrUnparseable = errors.New("lockrecord: unparseable")

// FromIdentity builds the record a scope writes when it claims a lockfile.
func FromIdentity(id identity.Identity, freeAfter float64) Record {
	return Record{PID: id.PID, Ran: id.Nonce, Machine: id.Host, FreeAfter: freeAfter}
}

// Matches reports whether the record's holder tuple equals id — the
// "double-check" comparison of §4.2 step 2 and the ownership revalidation
// of §4.2.2.
func (r Record) Matches(id identity.Identity) bool {
	return r.PID == id.PID && r.Ran == id.Nonce && r.Machine == id.Host
}

// Expired reports whether FreeAfter has elapsed. A FreeAfter of NoExpiry
// (or any non-positive value) never expires.
func (r Record) Expired(now float64) bool {
	return r.FreeAfter > 0 && r.FreeAfter < now
}

// Read parses the record at path. Any I/O or parse failure is wrapped so
// callers can distinguish "does not exist" (os.IsNotExist) from
// "exists but garbled" (ErrUnparseable) from other I/O errors.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is scope-internal, not user input
	if err != nil {
		return Record{}, err
	}
	if len(data) == 0 {
		return Record{}, fmt.Errorf("%w: empty file", ErrUnparseable)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return rec, nil
}

// Write serializes rec to path. The record is written directly (not via
// temp+rename): the lockfile's very existence is the mutual-exclusion
// signal, so the file must be created by the exclusive-create caller
// before Write ever runs — a rename here would reopen the race it is
// meant to close. The parent directory is fsynced afterward so the
// claim survives a crash immediately following this call.
func Write(path string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	_ = SyncDir(path) // best-effort: durability hardening, not the mutual-exclusion signal itself
	return nil
}

// Marshal serializes rec for backends where Write's direct-file-write
// form doesn't apply, e.g. an object-storage PutObject body.
func Marshal(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// SyncDir fsyncs path's parent directory, so a create/rename/unlink of a
// directory entry survives a crash immediately after the syscall returns.
func SyncDir(path string) error {
	dir, err := os.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()
	return dir.Sync()
}
