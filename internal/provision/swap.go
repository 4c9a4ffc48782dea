package provision

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/system"
	"github.com/bubuos/provision/internal/systemd"
)

const procSwaps = "/proc/swaps"

// SwapStep turns off swap. An SD card backed appliance must not page to
// its storage medium. Depends on nothing; must run before the fstab
// tuning so a removed swap entry is not re-activated on reboot.
type SwapStep struct {
	Sys     system.System
	Runner  Runner
	Systemd systemd.Manager

	// Unit is the swap service to disable, dphys-swapfile on Raspberry
	// Pi OS.
	Unit string
}

func (s *SwapStep) Name() string {
	return "disable swap"
}

func (s *SwapStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *SwapStep) Run(ctx context.Context) (Outcome, error) {
	if !s.swapConfigured() {
		return Unchanged, nil
	}

	// dphys-swapfile exits non-zero when there is no swapfile left to
	// operate on, which is the state we want anyway
	if err := s.Runner.Run(ctx, "dphys-swapfile", "swapoff"); err != nil {
		logrus.WithError(err).Debug("dphys-swapfile swapoff")
	}
	if err := s.Runner.Run(ctx, "dphys-swapfile", "uninstall"); err != nil {
		logrus.WithError(err).Debug("dphys-swapfile uninstall")
	}

	if err := s.Systemd.Disable(ctx, s.Unit); err != nil {
		return 0, err
	}
	return Changed, nil
}

// swapConfigured reports whether any swap is active or the swap service
// is still installed.
func (s *SwapStep) swapConfigured() bool {
	if s.Sys.Exists("/etc/dphys-swapfile") {
		return true
	}
	data, err := s.Sys.ReadFile(procSwaps)
	if err != nil {
		return false
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// first line is the column header
	return len(lines) > 1
}
