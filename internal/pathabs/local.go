package pathabs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// LocalPath is the ordinary-disk implementation of Path.
type LocalPath struct {
	path string
}

// NewLocal wraps an on-disk path.
func NewLocal(path string) *LocalPath {
	return &LocalPath{path: path}
}

func (p *LocalPath) Resolve() (string, error) {
	abs, err := filepath.Abs(p.path)
	if err != nil {
		return "", err
	}
	// EvalSymlinks requires the path to exist; a not-yet-created target
	// (e.g. an exclusive-create scope) is resolved by directory only.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil //nolint:nilerr // parent dir may also not exist yet; best effort
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

func (p *LocalPath) Exists() (bool, error) {
	_, err := os.Lstat(p.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (p *LocalPath) IsFile() (bool, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (p *LocalPath) Stat() (os.FileInfo, error) {
	return os.Stat(p.path)
}

// CopyTo copies file contents byte-for-byte. It is a copy, not a rename,
// because shadow-publish and backup-snapshot both need the source to
// survive the operation, and the destination may live in a different
// directory (temp dir vs target dir) where rename isn't guaranteed atomic
// anyway.
func (p *LocalPath) CopyTo(dst string) error {
	src, err := os.Open(p.path) //nolint:gosec // internal path
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// MoveTo renames if possible (same filesystem), falling back to
// copy-then-unlink across filesystem boundaries.
func (p *LocalPath) MoveTo(dst string) error {
	if err := os.Rename(p.path, dst); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) {
			return err
		}
	}
	if err := p.CopyTo(dst); err != nil {
		return err
	}
	return p.Unlink()
}

func (p *LocalPath) Rename(dst string) error {
	return os.Rename(p.path, dst)
}

func (p *LocalPath) Unlink() error {
	err := os.Remove(p.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *LocalPath) Touch() error {
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// SiblingPath wraps another on-disk path; ref is taken as-is (already
// absolute, by convention for local paths).
func (p *LocalPath) SiblingPath(ref string) Path {
	return NewLocal(ref)
}

// WriteBody overwrites the file with data directly.
func (p *LocalPath) WriteBody(data []byte) error {
	return os.WriteFile(p.path, data, 0o644)
}

// ReadBody reads the file's full contents.
func (p *LocalPath) ReadBody() ([]byte, error) {
	return os.ReadFile(p.path) //nolint:gosec // internal path
}
