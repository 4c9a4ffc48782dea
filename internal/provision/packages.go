package provision

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/apt"
	"github.com/bubuos/provision/internal/systemd"
)

// PackageStep installs the appliance package set and performs the
// network-manager switch-over: dhcpcd goes away, NetworkManager takes
// over. A package-manager failure is fatal because every later step
// assumes the set is present.
type PackageStep struct {
	Apt     apt.Manager
	Systemd systemd.Manager

	Install []string
	Remove  []string

	// DisableUnit is stopped being tolerant of absence; EnableUnit must
	// come up or the run aborts.
	DisableUnit string
	EnableUnit  string
}

func (s *PackageStep) Name() string {
	return "install packages"
}

func (s *PackageStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *PackageStep) Run(ctx context.Context) (Outcome, error) {
	if len(s.Install) > 0 {
		if err := s.Apt.Install(ctx, s.Install); err != nil {
			return 0, err
		}
	}
	if len(s.Remove) > 0 {
		// best-effort: an already-absent package must not fail the run
		if err := s.Apt.Remove(ctx, s.Remove); err != nil {
			logrus.WithError(err).Warn("package removal failed")
		}
	}

	if s.DisableUnit != "" {
		if err := s.Systemd.Disable(ctx, s.DisableUnit); err != nil {
			return 0, err
		}
	}
	if s.EnableUnit != "" {
		if err := s.Systemd.Enable(ctx, s.EnableUnit); err != nil {
			return 0, &ServiceEnableError{Unit: s.EnableUnit, Err: err}
		}
		if err := s.Systemd.Start(ctx, s.EnableUnit); err != nil {
			return 0, &ServiceEnableError{Unit: s.EnableUnit, Err: err}
		}
	}

	return Changed, nil
}
