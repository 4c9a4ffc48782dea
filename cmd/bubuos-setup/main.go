package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bubuos/provision/internal/apt"
	"github.com/bubuos/provision/internal/identity"
	"github.com/bubuos/provision/internal/logging"
	"github.com/bubuos/provision/internal/provision"
	"github.com/bubuos/provision/internal/system"
	"github.com/bubuos/provision/internal/systemd"
)

const defaultConfigPath = "/etc/bubuos-setup.toml"

const (
	exitFatalStep     = 1
	exitUsage         = 2
	exitNotPrivileged = 3
	exitUnknownUser   = 4
)

var errNotPrivileged = errors.New("must be run as root")

// newRootCmd builds the command. ran distinguishes provisioning
// failures from usage errors cobra rejects before RunE is reached.
func newRootCmd() (cmd *cobra.Command, ran *bool) {
	var configPath string
	var verbose bool
	ran = new(bool)

	cmd = &cobra.Command{
		Use:           "bubuos-setup [username]",
		Short:         "Provision a freshly flashed Raspberry Pi OS image as a BubuOS appliance",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*ran = true
			username := ""
			if len(args) == 1 {
				username = args[0]
			}
			return run(configPath, username, verbose)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "configuration file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	return cmd, ran
}

func main() {
	rootCmd, ran := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		if !*ran {
			os.Exit(exitUsage)
		}
		os.Exit(exitCode(err))
	}
}

func run(configPath, username string, verbose bool) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logging.Available() {
		logrus.AddHook(&logging.JournalHook{})
	}

	if os.Geteuid() != 0 {
		return errNotPrivileged
	}

	config, err := parseConfig(configPath)
	if err != nil {
		return fmt.Errorf("could not load config file %q: %w", configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.WithField("run_id", ksuid.New().String())

	manager, err := systemd.NewDBus(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	timeout := time.Duration(config.TimeoutMinutes) * time.Minute
	runner := provision.NewCommandRunner(timeout)

	seq := provision.NewSequence(config.plan(username), provision.Deps{
		Sys:             system.NewHost(),
		Runner:          runner,
		Apt:             apt.NewAptGet(timeout),
		Systemd:         manager,
		Log:             log,
		SudoersValidate: provision.VisudoValidator(runner),
	})

	if err := seq.Run(ctx); err != nil {
		return err
	}

	log.WithField("state", seq.State().String()).Info("provisioning complete")
	return nil
}

func exitCode(err error) int {
	var unknown *identity.UnknownIdentityError
	switch {
	case errors.Is(err, errNotPrivileged):
		return exitNotPrivileged
	case errors.As(err, &unknown):
		return exitUnknownUser
	default:
		return exitFatalStep
	}
}
