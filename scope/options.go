package scope

import (
	"context"
	"os"
	"time"

	"github.com/nikolasavic/protectedfile/internal/config"
	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// Opener lets a caller intercept the final open of the stream, mirroring
// Python's `opener=` pass-through from §6 — useful for injecting a test
// double or controlling file-descriptor inheritance.
type Opener func(name string, flag int, perm os.FileMode) (*os.File, error)

// Options configures a Scope, matching the §6 table one field at a time.
type Options struct {
	Wait             time.Duration
	UseTemporary     bool
	BackupDuringLock bool
	Backup           bool
	BackupIfReadonly bool
	CheckHash        bool
	MaxLockTime      time.Duration // zero means "no expiry"
	Perm             os.FileMode
	Opener           Opener
	Auditor          AuditEmitter
	Context          context.Context

	// RemotePath overrides local-disk resolution of target with an
	// already-constructed backend, e.g. an *pathabs.S3Path built from an
	// "s3://bucket/key" URI. Leave nil for ordinary local files.
	RemotePath pathabs.Path

	nestingLevel int // internal: >0 for the reclaim scope over a lockfile
}

// AuditEmitter decouples scope from a concrete logging backend; see
// internal/auditlog.Writer for the production implementation.
type AuditEmitter interface {
	Emit(event, target, detail string)
}

// Event names emitted through AuditEmitter, mirrored from
// internal/auditlog's constants so this package doesn't need to import
// it just to spell these strings consistently.
const (
	auditEventAcquired      = "acquired"
	auditEventReclaimed     = "reclaimed"
	auditEventPublished     = "published"
	auditEventCorruption    = "corruption_detected"
	auditEventOwnershipLost = "ownership_lost"
	auditEventTooManyLocks  = "too_many_locks"
	auditEventForceBreak    = "force_break"
)

// DefaultOptions returns the spec.md §6 built-ins.
func DefaultOptions() Options {
	d := config.Default()
	return Options{
		Wait:         d.Wait(),
		UseTemporary: d.UseTemporary,
		CheckHash:    d.CheckHash,
		Perm:         0o644,
		Context:      context.Background(),
	}
}

// Option mutates Options; functional-options pattern for Open/Do.
type Option func(*Options)

func WithWait(d time.Duration) Option { return func(o *Options) { o.Wait = d } }

func WithMaxLockTime(d time.Duration) Option { return func(o *Options) { o.MaxLockTime = d } }

func WithoutTemporary() Option { return func(o *Options) { o.UseTemporary = false } }

func WithBackupDuringLock(keep bool) Option {
	return func(o *Options) {
		o.BackupDuringLock = true
		o.Backup = keep
	}
}

func WithBackupIfReadonly() Option { return func(o *Options) { o.BackupIfReadonly = true } }

func WithoutHashCheck() Option { return func(o *Options) { o.CheckHash = false } }

func WithPerm(perm os.FileMode) Option { return func(o *Options) { o.Perm = perm } }

func WithOpener(fn Opener) Option { return func(o *Options) { o.Opener = fn } }

func WithAuditor(a AuditEmitter) Option { return func(o *Options) { o.Auditor = a } }

func WithContext(ctx context.Context) Option { return func(o *Options) { o.Context = ctx } }

// WithRemotePath routes the scope at a backend other than local disk,
// e.g. pathabs.NewS3Path. The scope's lockfile is addressed as a sibling
// of p with a ".lock" suffix in the same backend.
func WithRemotePath(p pathabs.Path) Option { return func(o *Options) { o.RemotePath = p } }

func resolve(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Backup {
		o.BackupDuringLock = true // "backup" implies "backup_during_lock", per §6
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	return o
}

func (o Options) emit(event, target, detail string) {
	if o.Auditor != nil {
		o.Auditor.Emit(event, target, detail)
	}
}
