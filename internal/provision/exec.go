package provision

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner invokes external helper processes (git, chown, dphys-swapfile,
// visudo). Steps depend on this interface so tests can record
// invocations instead of spawning anything.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// CommandRunner runs helpers on the live system and logs their output.
// Timeout bounds each invocation when positive.
type CommandRunner struct {
	Timeout time.Duration
}

func NewCommandRunner(timeout time.Duration) *CommandRunner {
	return &CommandRunner{Timeout: timeout}
}

func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) error {
	var output bytes.Buffer

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	logrus.Debugf("exec: %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	if out := strings.TrimSpace(output.String()); out != "" {
		logrus.Debugf("%s output: %s", name, out)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}
