package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostWriteFile(t *testing.T) {
	host := NewHost()
	dir := t.TempDir()
	path := filepath.Join(dir, "fstab")

	err := host.WriteFile(path, []byte("first\n"), 0644)
	require.NoError(t, err)

	data, err := host.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	mode, err := host.FileMode(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), mode)

	// overwrite replaces contents and mode, leaves no temp files behind
	err = host.WriteFile(path, []byte("second\n"), 0440)
	require.NoError(t, err)

	data, err = host.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	mode, err = host.FileMode(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0440), mode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHostWriteFileMissingDir(t *testing.T) {
	host := NewHost()
	err := host.WriteFile(filepath.Join(t.TempDir(), "no", "such", "dir", "f"), []byte("x"), 0644)
	assert.Error(t, err)
}

func TestHostExists(t *testing.T) {
	host := NewHost()
	dir := t.TempDir()

	assert.True(t, host.Exists(dir))
	assert.True(t, host.IsDir(dir))

	path := filepath.Join(dir, "file")
	assert.False(t, host.Exists(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.True(t, host.Exists(path))
	assert.False(t, host.IsDir(path))
}
