// Package system abstracts the host being provisioned. The engine only
// touches the machine through the System interface, so the whole
// provisioning sequence can run against the in-memory implementation in
// tests.
package system

import (
	"os"
)

// System is the host capability the provisioning engine reads and
// mutates. Read operations report absence rather than failing; write
// operations replace files atomically.
type System interface {
	// ReadFile returns the full contents of path. A missing file is
	// reported with an error satisfying errors.Is(err, os.ErrNotExist).
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data and mode perm. The replacement
	// is atomic: readers see either the old contents or the new ones.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// FileMode returns the permission bits of path.
	FileMode(path string) (os.FileMode, error)

	// Exists reports whether path exists. Unreadable paths count as
	// absent.
	Exists(path string) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool

	MkdirAll(path string, perm os.FileMode) error
	Chown(path string, uid, gid int) error
	Remove(path string) error

	// TmpfsMounted reports whether path is currently backed by a tmpfs
	// mount.
	TmpfsMounted(path string) bool
}
