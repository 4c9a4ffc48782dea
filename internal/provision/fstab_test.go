package provision

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bubuos/provision/internal/system"
)

const testFstab = "proc /proc proc defaults 0 0\n" +
	"PARTUUID=9c03a850-01 /boot/firmware vfat defaults 0 2\n" +
	"PARTUUID=9c03a850-02 / ext4 defaults 0 1\n"

func testFilesystemStep(mem *system.Memory) *FilesystemStep {
	return &FilesystemStep{
		Sys:         mem,
		FstabPath:   "/etc/fstab",
		RootOptions: []string{"noatime"},
		TmpfsMounts: []TmpfsMount{
			{Mountpoint: "/var/log", Options: "defaults,noatime,nosuid,size=64m"},
			{Mountpoint: "/tmp", Options: "defaults,noatime,nosuid,size=128m"},
		},
		Marker: "# bubuos tmpfs mounts",
	}
}

func TestFilesystemStep(t *testing.T) {
	mem := system.NewMemory()
	mem.AddFile("/etc/fstab", []byte(testFstab), 0644)

	step := testFilesystemStep(mem)
	outcome, err := step.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Changed, outcome)

	data, _ := mem.ReadFile("/etc/fstab")
	content := string(data)
	assert.Contains(t, content, "PARTUUID=9c03a850-02 / ext4 defaults,noatime 0 1")
	assert.Equal(t, 1, strings.Count(content, "tmpfs /var/log tmpfs"))
	assert.Equal(t, 1, strings.Count(content, "tmpfs /tmp tmpfs"))
}

func TestFilesystemStepRerunAddsNothing(t *testing.T) {
	mem := system.NewMemory()
	mem.AddFile("/etc/fstab", []byte(testFstab), 0644)
	step := testFilesystemStep(mem)

	_, err := step.Run(context.Background())
	require.NoError(t, err)
	once, _ := mem.ReadFile("/etc/fstab")

	outcome, err := step.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)

	twice, _ := mem.ReadFile("/etc/fstab")
	if diff := cmp.Diff(string(once), string(twice)); diff != "" {
		t.Errorf("re-run changed the mount table:\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(string(twice), "/var/log"))
}

func TestFilesystemStepLeavesLiveListedMountsAlone(t *testing.T) {
	// Entries somebody else already put in place, active since the last
	// boot: nothing to add, and no marker block either.
	fstab := "PARTUUID=9c03a850-02 / ext4 defaults,noatime 0 1\n" +
		"tmpfs /var/log tmpfs defaults,noatime,nosuid,size=64m 0 0\n" +
		"tmpfs /tmp tmpfs defaults,noatime,nosuid,size=128m 0 0\n"
	mem := system.NewMemory()
	mem.AddFile("/etc/fstab", []byte(fstab), 0644)
	mem.SetTmpfs("/var/log")
	mem.SetTmpfs("/tmp")

	step := testFilesystemStep(mem)
	outcome, err := step.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)

	data, _ := mem.ReadFile("/etc/fstab")
	assert.NotContains(t, string(data), step.Marker)
	assert.Equal(t, 0, mem.Writes["/etc/fstab"])
}

func TestFilesystemStepAddsOnlyMissingTmpfsMounts(t *testing.T) {
	fstab := "PARTUUID=9c03a850-02 / ext4 defaults,noatime 0 1\n" +
		"tmpfs /var/log tmpfs defaults,noatime,nosuid,size=64m 0 0\n"
	mem := system.NewMemory()
	mem.AddFile("/etc/fstab", []byte(fstab), 0644)
	mem.SetTmpfs("/var/log")

	step := testFilesystemStep(mem)
	outcome, err := step.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Changed, outcome)

	data, _ := mem.ReadFile("/etc/fstab")
	content := string(data)
	assert.Equal(t, 1, strings.Count(content, "tmpfs /var/log tmpfs"))
	assert.Equal(t, 1, strings.Count(content, "tmpfs /tmp tmpfs"))
	assert.Contains(t, content, step.Marker)
}

func TestFilesystemStepMissingFstabAborts(t *testing.T) {
	step := testFilesystemStep(system.NewMemory())
	_, err := step.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, AbortRun, step.Policy())
}
