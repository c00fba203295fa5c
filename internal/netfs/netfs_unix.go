//go:build unix

// Package netfs detects network filesystems, where POSIX semantics
// around O_EXCL and rename are not reliably atomic (spec.md §1's reason
// for existing at all). Detection is informational only — the protocol
// runs identically regardless of filesystem type (see Non-goals).
package netfs

import "syscall"

// Filesystem magic numbers from statfs(2).
const (
	nfsMagic   = 0x6969     // NFS_SUPER_MAGIC (also NFS4)
	cifsMagic  = 0xff534d42 // CIFS_MAGIC_NUMBER
	smbfsMagic = 0x517b     // SMB_SUPER_MAGIC
	ncpfsMagic = 0x564c     // NCP_SUPER_MAGIC
	afsMagic   = 0x5346414f // AFS_SUPER_MAGIC
	fuseMagic  = 0x65735546 // FUSE_SUPER_MAGIC (SSHFS, GlusterFS, etc.)
)

// Check reports whether path resides on a network filesystem, and its
// name if so.
func Check(path string) (network bool, fsName string) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return false, ""
	}

	switch stat.Type {
	case nfsMagic:
		return true, "NFS"
	case cifsMagic, smbfsMagic:
		return true, "CIFS/SMB"
	case ncpfsMagic:
		return true, "NCP"
	case afsMagic:
		return true, "AFS"
	case fuseMagic:
		return true, "FUSE"
	default:
		return false, ""
	}
}
