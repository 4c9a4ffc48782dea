package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/system"
)

// SudoersStep grants the identity passwordless execution of exactly the
// declared commands, one grant line per absolute command path, never a
// wildcard. The drop-in is written with mode 0440; sudo ignores
// drop-ins with wider permissions. Depends on the resolved identity.
type SudoersStep struct {
	Sys    system.System
	Holder *IdentityHolder

	Path     string
	Commands []string

	// LegacyPaths are obsolete drop-in names from earlier releases,
	// removed when present.
	LegacyPaths []string

	// Validate syntax-checks the staged content before install. Nil
	// skips the check.
	Validate func(content []byte) error
}

func (s *SudoersStep) Name() string {
	return "grant privileges"
}

func (s *SudoersStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *SudoersStep) Run(ctx context.Context) (Outcome, error) {
	id := s.Holder.Identity()

	content, err := grantContent(id.Username, s.Commands)
	if err != nil {
		return 0, err
	}

	for _, legacy := range s.LegacyPaths {
		if s.Sys.Exists(legacy) {
			if err := s.Sys.Remove(legacy); err != nil {
				logrus.WithError(err).Warnf("cannot remove obsolete grant file %s", legacy)
			}
		}
	}

	existing, readErr := s.Sys.ReadFile(s.Path)
	mode, modeErr := s.Sys.FileMode(s.Path)
	if readErr == nil && modeErr == nil && bytes.Equal(existing, content) && mode == os.FileMode(0440) {
		return Unchanged, nil
	}

	if s.Validate != nil {
		if err := s.Validate(content); err != nil {
			return 0, fmt.Errorf("grant file failed validation: %w", err)
		}
	}

	if err := s.Sys.WriteFile(s.Path, content, 0440); err != nil {
		return 0, fmt.Errorf("writing grant file %s: %w", s.Path, err)
	}
	return Changed, nil
}

// grantContent builds the drop-in: one NOPASSWD line per command,
// scoped to a single absolute path each.
func grantContent(username string, commands []string) ([]byte, error) {
	var b strings.Builder
	for _, cmd := range commands {
		if !filepath.IsAbs(cmd) {
			return nil, fmt.Errorf("grant command %q is not an absolute path", cmd)
		}
		if strings.ContainsAny(cmd, "*?[ \t") {
			return nil, fmt.Errorf("grant command %q must be a single literal path", cmd)
		}
		fmt.Fprintf(&b, "%s ALL=(ALL) NOPASSWD: %s\n", username, cmd)
	}
	return []byte(b.String()), nil
}

// VisudoValidator stages content in a temporary file and has visudo
// syntax-check it. A malformed drop-in would break sudo for the whole
// system, so a failed check aborts the step. When visudo is not
// installed the check is skipped.
func VisudoValidator(runner Runner) func(content []byte) error {
	return func(content []byte) error {
		tmp, err := os.CreateTemp("", "bubuos-sudoers-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}

		err = runner.Run(context.Background(), "visudo", "-cf", tmp.Name())
		if err != nil && strings.Contains(err.Error(), "executable file not found") {
			logrus.Debug("visudo not installed, skipping grant file check")
			return nil
		}
		return err
	}
}
