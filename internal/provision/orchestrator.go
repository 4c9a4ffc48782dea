package provision

import (
	"context"

	"github.com/sirupsen/logrus"
)

func stateNames() []string {
	return []string{
		"Init",
		"IdentityResolved",
		"DependenciesInstalled",
		"FilesystemTuned",
		"PatchApplied",
		"BootConfigured",
		"ServiceProvisioned",
		"PermissionsGranted",
		"Done",
		"Aborted",
	}
}

// State tracks how far the run has progressed.
type State int

const (
	StateInit State = iota
	StateIdentityResolved
	StateDependenciesInstalled
	StateFilesystemTuned
	StatePatchApplied
	StateBootConfigured
	StateServiceProvisioned
	StatePermissionsGranted
	StateDone
	StateAborted
)

func (s State) String() string {
	return stateNames()[int(s)]
}

// stage pairs a step with the state the run is in once the step has
// completed.
type stage struct {
	step  Step
	after State
}

// Orchestrator runs the provisioning stages strictly in order. A fatal
// step failure aborts the run immediately; there is no rollback, the
// run is designed to be re-invoked instead.
type Orchestrator struct {
	stages []stage
	state  State
	log    *logrus.Entry
}

func NewOrchestrator(log *logrus.Entry) *Orchestrator {
	return &Orchestrator{state: StateInit, log: log}
}

func (o *Orchestrator) add(s Step, after State) {
	o.stages = append(o.stages, stage{step: s, after: after})
}

// State returns the state the last Run ended in.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes all stages. On a fatal failure the returned error is a
// *StepError naming the offending step.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state = StateInit

	for _, st := range o.stages {
		log := o.log.WithField("step", st.step.Name())
		log.Info("starting")

		outcome, err := st.step.Run(ctx)
		if err != nil {
			if st.step.Policy() == WarnAndContinue {
				log.WithError(err).Warn("step failed, continuing")
				o.state = st.after
				continue
			}
			log.WithError(err).Error("step failed")
			o.state = StateAborted
			return &StepError{Step: st.step.Name(), Err: err}
		}

		log.WithField("outcome", outcome.String()).Info("completed")
		o.state = st.after
	}

	o.state = StateDone
	return nil
}
