// Package auditlog appends a structured JSONL record of every scope
// lifecycle event next to the target file, using zerolog for the process
// log and a dedicated append-only file for the durable trail.
package auditlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event names, one per §4.8 failure-semantics row plus the happy-path
// transitions of §4.6.
const (
	EventAcquired           = "acquired"
	EventReclaimed          = "reclaimed"
	EventPublished          = "published"
	EventRestored           = "restored"
	EventCorruptionDetected = "corruption_detected"
	EventOwnershipLost      = "ownership_lost"
	EventOverrun            = "overrun"
	EventReleased           = "released"
	EventTooManyLocks       = "too_many_locks"
	EventForceBreak         = "force_break"
)

// Entry is one audit-log line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Event     string    `json:"event"`
	Target    string    `json:"target"`
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	Detail    string    `json:"detail,omitempty"`
}

// Writer appends Entry values to "<target>.audit.log" and mirrors a
// human-readable line to the process-wide zerolog logger. Writes never
// fail the caller: an I/O error here is logged and swallowed, matching
// §7's rule that release-path diagnostics must never block cleanup.
type Writer struct {
	path string
}

// New returns a Writer for the audit trail of target.
func New(target string) *Writer {
	return &Writer{path: target + ".audit.log"}
}

// Emit appends e (stamping Timestamp if zero) and logs a summary line.
func (w *Writer) Emit(e Entry) {
	if w == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	logEvent := log.Info()
	if e.Event == EventCorruptionDetected || e.Event == EventOwnershipLost || e.Event == EventTooManyLocks {
		logEvent = log.Warn()
	}
	logEvent.Str("event", e.Event).Str("target", e.Target).Str("detail", e.Detail).Msg("scope lifecycle")

	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("auditlog: marshal failed")
		return
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		log.Error().Err(err).Msg("auditlog: mkdir failed")
		return
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // internal path
	if err != nil {
		log.Error().Err(err).Msg("auditlog: open failed")
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		log.Error().Err(err).Msg("auditlog: write failed")
	}
}

// ConfigureConsoleWriter switches the package-wide zerolog logger to a
// human-friendly console writer, for CLI use; library callers that want
// JSON-only output can skip this.
func ConfigureConsoleWriter() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
