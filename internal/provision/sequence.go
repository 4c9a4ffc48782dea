package provision

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/apt"
	"github.com/bubuos/provision/internal/identity"
	"github.com/bubuos/provision/internal/system"
	"github.com/bubuos/provision/internal/systemd"
)

// IdentityHolder carries the identity resolved by the first step into
// every later step. It is nil until resolution succeeds, and no
// mutating step runs before that.
type IdentityHolder struct {
	id *identity.Identity
}

func (h *IdentityHolder) Identity() *identity.Identity {
	return h.id
}

// identityStep validates the target account. It is the gate for the
// whole run: nothing is mutated until it succeeds.
type identityStep struct {
	resolve  func(username string) (*identity.Identity, error)
	username string
	holder   *IdentityHolder
	log      *logrus.Entry
}

func (s *identityStep) Name() string {
	return "resolve identity"
}

func (s *identityStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *identityStep) Run(ctx context.Context) (Outcome, error) {
	id, err := s.resolve(s.username)
	if err != nil {
		return 0, err
	}
	s.holder.id = id
	s.log.WithField("user", id.Username).WithField("home", id.Home).Info("identity resolved")
	return Unchanged, nil
}

// Plan is the full desired-state description of one provisioning run.
type Plan struct {
	Username string

	InstallPackages []string
	RemovePackages  []string
	DisableUnit     string
	EnableUnit      string

	SwapUnit string

	FstabPath   string
	RootOptions []string
	TmpfsMounts []TmpfsMount
	FstabMarker string

	PatchRepoURL   string
	PatchDir       string
	PatchInstaller string

	BootConfigPaths []string
	CmdlinePaths    []string
	BootMarker      string
	BootFragment    []string
	CmdlineWords    []string

	DataDirName string
	DataSubdirs []string

	UnitName         string
	UnitDir          string
	UnitTemplatePath string

	SudoersPath     string
	SudoersCommands []string
	SudoersLegacy   []string
}

// Deps are the collaborators a run mutates the system through.
type Deps struct {
	Sys     system.System
	Runner  Runner
	Apt     apt.Manager
	Systemd systemd.Manager
	Log     *logrus.Entry

	// SudoersValidate syntax-checks the grant file before install.
	SudoersValidate func(content []byte) error

	// Resolve overrides account lookup; defaults to the system user
	// database.
	Resolve func(username string) (*identity.Identity, error)
}

// NewSequence wires the full ordered provisioning sequence. The order
// is load-bearing: identity gates everything, packages precede the
// services and tools later steps invoke, the driver patch rewrites the
// firmware config before the marker block is appended to it.
func NewSequence(plan Plan, deps Deps) *Orchestrator {
	holder := &IdentityHolder{}
	o := NewOrchestrator(deps.Log)

	resolve := deps.Resolve
	if resolve == nil {
		resolve = identity.NewResolver(deps.Sys).Resolve
	}

	o.add(&identityStep{
		resolve:  resolve,
		username: plan.Username,
		holder:   holder,
		log:      deps.Log,
	}, StateIdentityResolved)

	o.add(&PackageStep{
		Apt:         deps.Apt,
		Systemd:     deps.Systemd,
		Install:     plan.InstallPackages,
		Remove:      plan.RemovePackages,
		DisableUnit: plan.DisableUnit,
		EnableUnit:  plan.EnableUnit,
	}, StateDependenciesInstalled)

	o.add(&SwapStep{
		Sys:     deps.Sys,
		Runner:  deps.Runner,
		Systemd: deps.Systemd,
		Unit:    plan.SwapUnit,
	}, StateDependenciesInstalled)

	o.add(&FilesystemStep{
		Sys:         deps.Sys,
		FstabPath:   plan.FstabPath,
		RootOptions: plan.RootOptions,
		TmpfsMounts: plan.TmpfsMounts,
		Marker:      plan.FstabMarker,
	}, StateFilesystemTuned)

	o.add(&PatchStep{
		Sys:       deps.Sys,
		Runner:    deps.Runner,
		Holder:    holder,
		RepoURL:   plan.PatchRepoURL,
		TargetDir: plan.PatchDir,
		Installer: plan.PatchInstaller,
	}, StatePatchApplied)

	o.add(&BootConfigStep{
		Sys:          deps.Sys,
		ConfigPaths:  plan.BootConfigPaths,
		CmdlinePaths: plan.CmdlinePaths,
		Marker:       plan.BootMarker,
		Fragment:     plan.BootFragment,
		CmdlineWords: plan.CmdlineWords,
	}, StateBootConfigured)

	o.add(&ServiceStep{
		Sys:          deps.Sys,
		Systemd:      deps.Systemd,
		Holder:       holder,
		DataDirName:  plan.DataDirName,
		DataSubdirs:  plan.DataSubdirs,
		UnitName:     plan.UnitName,
		UnitDir:      plan.UnitDir,
		TemplatePath: plan.UnitTemplatePath,
	}, StateServiceProvisioned)

	o.add(&SudoersStep{
		Sys:         deps.Sys,
		Holder:      holder,
		Path:        plan.SudoersPath,
		Commands:    plan.SudoersCommands,
		LegacyPaths: plan.SudoersLegacy,
		Validate:    deps.SudoersValidate,
	}, StatePermissionsGranted)

	return o
}
