package provision

import (
	"fmt"
)

// ServiceEnableError is fatal: without its units the provisioned
// appliance would not come up correctly on boot.
type ServiceEnableError struct {
	Unit string
	Err  error
}

func (e *ServiceEnableError) Error() string {
	return fmt.Sprintf("service %s: %v", e.Unit, e.Err)
}

func (e *ServiceEnableError) Unwrap() error {
	return e.Err
}

// StepError names the step that aborted the run and the underlying
// cause.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
