package provision

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/system"
)

// PatchStep installs the third-party case driver patch: clone its
// repository and run its installer. The whole step is best-effort; the
// appliance works without the patch, just without the case's display
// and power-button integration.
//
// Presence is detected by the target directory alone. A changed
// upstream patch is not re-applied on re-runs; delete the directory to
// force a fresh install.
type PatchStep struct {
	Sys    system.System
	Runner Runner
	Holder *IdentityHolder

	RepoURL   string
	TargetDir string
	// Installer is the script path relative to TargetDir.
	Installer string
}

func (s *PatchStep) Name() string {
	return "install case driver patch"
}

func (s *PatchStep) Policy() FailurePolicy {
	return WarnAndContinue
}

func (s *PatchStep) Run(ctx context.Context) (Outcome, error) {
	dir := s.targetDir()
	if s.Sys.Exists(dir) {
		return Skipped, nil
	}

	if err := s.Runner.Run(ctx, "git", "clone", "--depth", "1", s.RepoURL, dir); err != nil {
		return 0, fmt.Errorf("cloning %s: %w", s.RepoURL, err)
	}

	if id := s.Holder.Identity(); id != nil {
		if err := s.Runner.Run(ctx, "chown", "-R", fmt.Sprintf("%d:%d", id.UID, id.GID), dir); err != nil {
			logrus.WithError(err).Warn("chown of patch checkout failed")
		}
	}

	installer := filepath.Join(dir, s.Installer)
	if !s.Sys.Exists(installer) {
		logrus.Warnf("patch installer %s not found after clone", installer)
		return Changed, nil
	}

	// the installer is a black box: its internal outcome is not
	// inspected
	if err := s.Runner.Run(ctx, "bash", installer); err != nil {
		logrus.WithError(err).Warn("patch installer reported failure")
	}
	return Changed, nil
}

func (s *PatchStep) targetDir() string {
	if filepath.IsAbs(s.TargetDir) {
		return s.TargetDir
	}
	id := s.Holder.Identity()
	home := "/root"
	if id != nil {
		home = id.Home
	}
	return filepath.Join(home, s.TargetDir)
}
