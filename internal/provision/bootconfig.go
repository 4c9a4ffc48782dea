package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/facts"
	"github.com/bubuos/provision/internal/system"
)

// BootConfigStep appends the marker-guarded appliance block to the boot
// firmware configuration and tunes the kernel command line. The
// firmware config location moved between OS generations, so candidate
// paths are probed in order. Must run after the driver patch, which
// rewrites parts of the same file.
type BootConfigStep struct {
	Sys system.System

	ConfigPaths  []string
	CmdlinePaths []string

	Marker   string
	Fragment []string

	// CmdlineWords are tokens ensured on the kernel command line.
	CmdlineWords []string
}

func (s *BootConfigStep) Name() string {
	return "configure boot firmware"
}

func (s *BootConfigStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *BootConfigStep) Run(ctx context.Context) (Outcome, error) {
	configPath, err := s.probe(s.ConfigPaths)
	if err != nil {
		return 0, err
	}

	editor := facts.NewEditor(s.Sys)
	outcome := Unchanged

	res, err := editor.EnsureFragment(configPath, s.Marker, s.fragment())
	if err != nil {
		return 0, err
	}
	if res == facts.Applied {
		outcome = Changed
	}

	if len(s.CmdlineWords) > 0 {
		cmdlinePath, err := s.probe(s.CmdlinePaths)
		if err != nil {
			// older images keep cmdline.txt elsewhere; cosmetic tuning
			// is not worth aborting over
			logrus.WithError(err).Warn("kernel command line not found")
			return outcome, nil
		}
		for _, word := range s.CmdlineWords {
			res, err := editor.EnsureWord(cmdlinePath, word)
			if err != nil {
				return 0, err
			}
			if res == facts.Applied {
				outcome = Changed
			}
		}
	}

	return outcome, nil
}

func (s *BootConfigStep) fragment() string {
	return s.Marker + "\n" + strings.Join(s.Fragment, "\n") + "\n"
}

func (s *BootConfigStep) probe(paths []string) (string, error) {
	for _, p := range paths {
		if s.Sys.Exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("none of %s exist", strings.Join(paths, ", "))
}
