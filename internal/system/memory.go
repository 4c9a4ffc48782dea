package system

import (
	"os"
	"path/filepath"
	"strings"
)

type memFile struct {
	data []byte
	mode os.FileMode
}

// Memory is an in-memory System used by tests. It records every write
// and ownership change so tests can assert that an idempotent step left
// the fake untouched on a second run.
type Memory struct {
	files  map[string]*memFile
	dirs   map[string]bool
	tmpfs  map[string]bool
	owners map[string][2]int

	// Writes counts WriteFile calls per path.
	Writes map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		files:  make(map[string]*memFile),
		dirs:   map[string]bool{"/": true},
		tmpfs:  make(map[string]bool),
		owners: make(map[string][2]int),
		Writes: make(map[string]int),
	}
}

// AddFile seeds the fake with a file, creating parent directories.
func (m *Memory) AddFile(path string, data []byte, mode os.FileMode) {
	m.addDirs(filepath.Dir(path))
	m.files[path] = &memFile{data: append([]byte(nil), data...), mode: mode}
}

// AddDir seeds the fake with a directory tree.
func (m *Memory) AddDir(path string) {
	m.addDirs(path)
}

// SetTmpfs marks path as currently tmpfs-backed.
func (m *Memory) SetTmpfs(path string) {
	m.tmpfs[path] = true
}

// Owner returns the recorded uid/gid of path.
func (m *Memory) Owner(path string) (int, int, bool) {
	o, ok := m.owners[path]
	return o[0], o[1], ok
}

func (m *Memory) addDirs(path string) {
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		m.dirs[p] = true
		if p == "/" || !strings.Contains(p, "/") {
			break
		}
	}
}

func (m *Memory) ReadFile(path string) ([]byte, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return append([]byte(nil), f.data...), nil
}

func (m *Memory) WriteFile(path string, data []byte, perm os.FileMode) error {
	if !m.dirs[filepath.Dir(path)] {
		return &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	m.files[path] = &memFile{data: append([]byte(nil), data...), mode: perm}
	m.Writes[path]++
	return nil
}

func (m *Memory) FileMode(path string) (os.FileMode, error) {
	f, ok := m.files[path]
	if !ok {
		return 0, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return f.mode, nil
}

func (m *Memory) Exists(path string) bool {
	_, ok := m.files[path]
	return ok || m.dirs[filepath.Clean(path)]
}

func (m *Memory) IsDir(path string) bool {
	return m.dirs[filepath.Clean(path)]
}

func (m *Memory) MkdirAll(path string, perm os.FileMode) error {
	m.addDirs(path)
	return nil
}

func (m *Memory) Chown(path string, uid, gid int) error {
	if !m.Exists(path) {
		return &os.PathError{Op: "chown", Path: path, Err: os.ErrNotExist}
	}
	m.owners[path] = [2]int{uid, gid}
	return nil
}

func (m *Memory) Remove(path string) error {
	if _, ok := m.files[path]; !ok {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) TmpfsMounted(path string) bool {
	return m.tmpfs[path]
}
