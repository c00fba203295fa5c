package scope

import (
	"os"

	"github.com/nikolasavic/protectedfile/internal/auditlog"
)

// AuditLogAdapter satisfies AuditEmitter on top of internal/auditlog's
// JSONL writer, so library callers don't need to depend on internal/
// packages directly. Construct with NewAuditLog.
type AuditLogAdapter struct {
	w *auditlog.Writer
}

// NewAuditLog builds an AuditEmitter that appends to
// "<target>.audit.log".
func NewAuditLog(target string) *AuditLogAdapter {
	return &AuditLogAdapter{w: auditlog.New(target)}
}

func (a *AuditLogAdapter) Emit(event, target, detail string) {
	a.w.Emit(auditlog.Entry{
		Event:  event,
		Target: target,
		PID:    os.Getpid(),
		Host:   hostnameOrUnknown(),
		Detail: detail,
	})
}

func hostnameOrUnknown() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
