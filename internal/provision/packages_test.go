package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bubuos/provision/internal/apt"
)

func TestPackageStep(t *testing.T) {
	aptm := &fakeApt{}
	sysd := newFakeSystemd()
	step := &PackageStep{
		Apt:         aptm,
		Systemd:     sysd,
		Install:     []string{"network-manager", "git"},
		DisableUnit: "dhcpcd.service",
		EnableUnit:  "NetworkManager.service",
	}

	outcome, err := step.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Changed, outcome)
	assert.Equal(t, [][]string{{"network-manager", "git"}}, aptm.installed)
	assert.Equal(t, []string{"dhcpcd.service"}, sysd.disabled)
	assert.Equal(t, []string{"NetworkManager.service"}, sysd.enabled)
	assert.Equal(t, []string{"NetworkManager.service"}, sysd.started)
}

func TestPackageStepInstallFailureIsFatal(t *testing.T) {
	aptm := &fakeApt{installErr: &apt.InstallError{Packages: []string{"git"}, Err: errors.New("repo unreachable")}}
	sysd := newFakeSystemd()
	step := &PackageStep{Apt: aptm, Systemd: sysd, Install: []string{"git"}, EnableUnit: "NetworkManager.service"}

	_, err := step.Run(context.Background())
	var installErr *apt.InstallError
	require.ErrorAs(t, err, &installErr)

	// no service switch-over after a failed install
	assert.Empty(t, sysd.enabled)
}

func TestPackageStepRemoveFailureIsTolerated(t *testing.T) {
	aptm := &fakeApt{removeErr: errors.New("package not installed")}
	step := &PackageStep{Apt: aptm, Systemd: newFakeSystemd(), Remove: []string{"dhcpcd5"}}

	_, err := step.Run(context.Background())
	assert.NoError(t, err)
}

func TestPackageStepEnableFailureIsFatal(t *testing.T) {
	sysd := newFakeSystemd()
	sysd.startErr["NetworkManager.service"] = errors.New("job failed")
	step := &PackageStep{Apt: &fakeApt{}, Systemd: sysd, EnableUnit: "NetworkManager.service"}

	_, err := step.Run(context.Background())
	var enableErr *ServiceEnableError
	require.ErrorAs(t, err, &enableErr)
	assert.Equal(t, "NetworkManager.service", enableErr.Unit)
	assert.Equal(t, AbortRun, step.Policy())
}
