// Package apt drives the system package manager. The provisioning
// engine only sees the Manager interface; apt-get is an opaque
// collaborator that either converges the package set or fails the run.
package apt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Manager interface {
	Install(ctx context.Context, packages []string) error
	Remove(ctx context.Context, packages []string) error
}

// InstallError is fatal to the run: later steps assume the package set
// is present.
type InstallError struct {
	Packages []string
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installing packages %s: %v", strings.Join(e.Packages, " "), e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// AptGet implements Manager by invoking apt-get noninteractively.
// Timeout bounds each invocation when positive.
type AptGet struct {
	Timeout time.Duration
}

func NewAptGet(timeout time.Duration) *AptGet {
	return &AptGet{Timeout: timeout}
}

func (a *AptGet) Install(ctx context.Context, packages []string) error {
	args := append([]string{"install", "-y", "--no-install-recommends"}, packages...)
	if err := a.run(ctx, args); err != nil {
		return &InstallError{Packages: packages, Err: err}
	}
	return nil
}

func (a *AptGet) Remove(ctx context.Context, packages []string) error {
	args := append([]string{"purge", "-y"}, packages...)
	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("removing packages %s: %w", strings.Join(packages, " "), err)
	}
	return nil
}

func (a *AptGet) run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "apt-get", args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	cmd.Stdout = logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	cmd.Stderr = &stderr

	logrus.Debugf("exec: apt-get %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("apt-get %s: %v: %s", args[0], err, msg)
		}
		return fmt.Errorf("apt-get %s: %v", args[0], err)
	}
	return nil
}
