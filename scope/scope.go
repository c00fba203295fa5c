// Package scope implements the Protected Scope: the arbitration and
// crash-recovery protocol for safe read/modify/write sequences over a
// shared file. See SPEC_FULL.md for the full component breakdown.
package scope

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nikolasavic/protectedfile/internal/identity"
	"github.com/nikolasavic/protectedfile/internal/integrity"
	"github.com/nikolasavic/protectedfile/internal/pathabs"
	"github.com/nikolasavic/protectedfile/internal/tempdir"
)

// Mode selects how the target is opened, mirroring Python's 'r' / 'r+' /
// 'x' modes from the original source.
type Mode int

const (
	// ModeRead opens an existing target read-only. No shadow, and no
	// backup unless BackupIfReadonly is set.
	ModeRead Mode = iota
	// ModeReadWrite opens an existing target for read and write.
	ModeReadWrite
	// ModeCreate exclusively creates a new target; fails if it exists.
	ModeCreate
)

const (
	// MaxNesting is the recursion ceiling for reclaim scopes (§4.2.1 /
	// §6 "Constants").
	MaxNesting = 5
	// NestedMaxLockTimeSeconds is the max_lock_time a reclaim scope
	// grants itself.
	NestedMaxLockTimeSeconds = 10
	// NestedWaitSeconds is the base retry wait a reclaim scope uses.
	NestedWaitSeconds = 0.1
)

// Scope is one Enter..Exit lifetime over a single target file. The zero
// value is not usable; construct with Open.
type Scope struct {
	target     string
	lockpath   string
	temppath   string
	backuppath string

	stream   *os.File
	path     pathabs.Path
	lockPath pathabs.Path

	id identity.Identity

	baselineSize int64
	baselineHash string
	hasBaseline  bool

	readonly         bool
	useShadow        bool
	doBackup         bool
	keepBackup       bool
	checkHash        bool
	backupIfReadonly bool

	nestingLevel int
	acquired     bool
	released     bool

	opts Options
}

// Open constructs a Scope over target in the given Mode, running the
// Constructing→Acquiring→Held transitions of §4.6. On success the
// returned Scope owns the lockfile and Stream() is ready to use; the
// caller must eventually call Close (typically via defer) to reach
// Exiting→Released.
func Open(target string, mode Mode, opts ...Option) (*Scope, error) {
	o := resolve(opts)
	return open(target, mode, o)
}

func open(target string, mode Mode, o Options) (*Scope, error) {
	var (
		abs  string
		path pathabs.Path
	)
	if o.RemotePath != nil {
		path = o.RemotePath
		resolved, err := path.Resolve()
		if err != nil {
			return nil, fmt.Errorf("scope: resolve remote target: %w", err)
		}
		abs = resolved
	} else {
		local, err := filepath.Abs(target)
		if err != nil {
			return nil, err
		}
		abs = local
		path = pathabs.NewLocal(abs)
	}

	exists, err := path.Exists()
	if err != nil {
		return nil, fmt.Errorf("scope: probe target: %w", err)
	}
	if exists && o.RemotePath == nil {
		info, err := os.Lstat(abs)
		if err == nil && !info.Mode().IsRegular() {
			return nil, ErrNotImplemented
		}
	}

	switch mode {
	case ModeRead, ModeReadWrite:
		if !exists {
			return nil, ErrFileNotFound
		}
	case ModeCreate:
		if exists {
			return nil, ErrFileExists
		}
	}

	readonly := mode == ModeRead
	useShadow := o.UseTemporary && !readonly
	doBackup := o.BackupDuringLock
	if readonly && !o.BackupIfReadonly {
		doBackup = false
	}
	checkHash := o.CheckHash && o.nestingLevel == 0

	if o.nestingLevel > 0 {
		doBackup = false
		useShadow = false
		checkHash = false
	}

	// Remote targets only get the locking half of the protocol: object
	// storage has no local byte stream to shadow, back up, or hash the
	// way a local file does. Callers access content through Path().
	if o.RemotePath != nil {
		doBackup = false
		useShadow = false
		checkHash = false
	}

	id := identity.New()

	dir, err := tempdir.Dir()
	if err != nil {
		return nil, fmt.Errorf("scope: temp dir unavailable: %w", err)
	}

	s := &Scope{
		target:           abs,
		lockpath:         abs + ".lock",
		temppath:         filepath.Join(dir, filepath.Base(abs)+"-"+uuid.NewString()),
		path:             path,
		lockPath:         path.SiblingPath(abs + ".lock"),
		id:               id,
		readonly:         readonly,
		useShadow:        useShadow,
		doBackup:         doBackup,
		keepBackup:       o.Backup,
		checkHash:        checkHash,
		backupIfReadonly: o.BackupIfReadonly,
		nestingLevel:     o.nestingLevel,
		opts:             o,
	}

	if err := s.acquire(o); err != nil {
		return nil, err
	}
	s.acquired = true
	registerScope(s)

	if s.doBackup && exists {
		s.backuppath = abs + ".backup"
		if err := path.CopyTo(s.backuppath); err != nil {
			s.release()
			return nil, fmt.Errorf("scope: backup snapshot failed: %w", err)
		}
	}

	if s.checkHash && exists {
		base, err := integrity.Record(abs)
		if err != nil {
			s.release()
			return nil, fmt.Errorf("scope: baseline hash failed: %w", err)
		}
		s.baselineSize = base.Size
		s.baselineHash = base.Hash
		s.hasBaseline = true
	}

	if o.RemotePath == nil {
		streamPath := abs
		if s.useShadow {
			if exists {
				if err := path.CopyTo(s.temppath); err != nil {
					s.release()
					return nil, fmt.Errorf("scope: shadow copy failed: %w", err)
				}
			}
			streamPath = s.temppath
		}

		stream, err := s.openStream(streamPath, mode, exists, o)
		if err != nil {
			s.release()
			return nil, fmt.Errorf("scope: open stream failed: %w", err)
		}
		s.stream = stream
	}

	o.emit(auditEventAcquired, s.target, fmt.Sprintf("nesting=%d readonly=%v shadow=%v", s.nestingLevel, s.readonly, s.useShadow))
	return s, nil
}

func (s *Scope) openStream(path string, mode Mode, exists bool, o Options) (*os.File, error) {
	flag := os.O_RDONLY
	switch mode {
	case ModeReadWrite:
		flag = os.O_RDWR
	case ModeCreate:
		flag = os.O_RDWR | os.O_CREATE
	}
	if s.useShadow && !exists {
		flag |= os.O_CREATE
	}
	perm := o.Perm
	if perm == 0 {
		perm = 0o644
	}
	if o.Opener != nil {
		return o.Opener(path, flag, perm)
	}
	return os.OpenFile(path, flag, perm) //nolint:gosec // path built from scope-owned target/temp
}

// Target returns the canonical path of the protected file.
func (s *Scope) Target() string { return s.target }

// Stream returns the open byte stream: the shadow file for a writable
// scope that shadows, otherwise the target itself. Remote targets
// (opened with WithRemotePath) have no stream; Stream returns nil and
// callers use Path() instead.
func (s *Scope) Stream() *os.File { return s.stream }

// Path returns the abstract Path the scope holds the lock for — the
// only way to read or write content on a remote target, since Stream
// only applies to local disk.
func (s *Scope) Path() pathabs.Path { return s.path }

// Readonly reports whether this scope was opened in ModeRead.
func (s *Scope) Readonly() bool { return s.readonly }

// NestingLevel reports the reclaim depth (0 for ordinary caller scopes).
func (s *Scope) NestingLevel() int { return s.nestingLevel }
