package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/facts"
	"github.com/bubuos/provision/internal/system"
)

// TmpfsMount is one memory-backed mount added to the mount table to
// keep write churn off the storage medium.
type TmpfsMount struct {
	Mountpoint string
	Options    string
}

// FilesystemStep tunes the mount table: mount options on the root
// entry, plus a marker-guarded block of tmpfs mounts. Must run before
// anything that relies on the tuned filesystem surviving a reboot.
type FilesystemStep struct {
	Sys system.System

	FstabPath   string
	RootOptions []string
	TmpfsMounts []TmpfsMount
	Marker      string
}

func (s *FilesystemStep) Name() string {
	return "tune filesystem"
}

func (s *FilesystemStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *FilesystemStep) Run(ctx context.Context) (Outcome, error) {
	editor := facts.NewEditor(s.Sys)
	checker := facts.NewChecker(s.Sys)
	outcome := Unchanged

	for _, opt := range s.RootOptions {
		res, err := editor.EnsureLineOption(s.FstabPath, rootEntry, 3, opt)
		if err != nil {
			return 0, err
		}
		if res == facts.Applied {
			outcome = Changed
		}
	}

	// A mount that is both live and already listed in the table needs
	// nothing from us, whoever put the entry there. Only the rest go
	// into the marker-guarded block.
	needed := make([]TmpfsMount, 0, len(s.TmpfsMounts))
	for _, m := range s.TmpfsMounts {
		if checker.TmpfsLive(m.Mountpoint) && checker.HasLine(s.FstabPath, tmpfsEntry(m.Mountpoint)) {
			logrus.Debugf("%s is already tmpfs backed and listed in %s", m.Mountpoint, s.FstabPath)
			continue
		}
		needed = append(needed, m)
	}
	if len(needed) > 0 {
		res, err := editor.EnsureFragment(s.FstabPath, s.Marker, s.fragment(needed))
		if err != nil {
			return 0, err
		}
		if res == facts.Applied {
			outcome = Changed
		}
	}

	return outcome, nil
}

func (s *FilesystemStep) fragment(mounts []TmpfsMount) string {
	var b strings.Builder
	b.WriteString(s.Marker + "\n")
	for _, m := range mounts {
		fmt.Fprintf(&b, "tmpfs %s tmpfs %s 0 0\n", m.Mountpoint, m.Options)
	}
	return b.String()
}

// tmpfsEntry matches a mount table line declaring a tmpfs on mountpoint.
func tmpfsEntry(mountpoint string) func(string) bool {
	return func(line string) bool {
		fields := strings.Fields(line)
		return len(fields) >= 2 && fields[0] == "tmpfs" && fields[1] == mountpoint
	}
}

// rootEntry matches the mount table line for /.
func rootEntry(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 4 && !strings.HasPrefix(fields[0], "#") && fields[1] == "/"
}
