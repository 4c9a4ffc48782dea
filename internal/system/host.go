package system

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Host implements System against the live machine.
type Host struct{}

func NewHost() *Host {
	return &Host{}
}

func (h *Host) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a temporary file next to path and renames it
// into place, so a crash mid-write never leaves a truncated target.
func (h *Host) WriteFile(path string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Dir(path), filepath.Base(path)

	tmpfile, err := os.CreateTemp(dir, name+"-*.tmp")
	if err != nil {
		return err
	}

	_, err = tmpfile.Write(data)
	if err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return err
	}

	err = tmpfile.Chmod(perm)
	if err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return err
	}

	err = tmpfile.Close()
	if err != nil {
		os.Remove(tmpfile.Name())
		return err
	}

	err = os.Rename(tmpfile.Name(), path)
	if err != nil {
		os.Remove(tmpfile.Name())
		return err
	}

	return nil
}

func (h *Host) FileMode(path string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Mode().Perm(), nil
}

func (h *Host) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *Host) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (h *Host) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (h *Host) Chown(path string, uid, gid int) error {
	return os.Chown(path, uid, gid)
}

func (h *Host) Remove(path string) error {
	return os.Remove(path)
}

func (h *Host) TmpfsMounted(path string) bool {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return false
	}
	return fs.Type == unix.TMPFS_MAGIC
}
