// Package facts implements the idempotent edit primitives the
// provisioning steps are built from: marker-guarded fragment appends,
// single-line option edits on table files, and the read-only checks
// that decide whether a desired fact already holds.
package facts

import (
	"fmt"
)

// Result reports what an edit did to its target.
type Result int

const (
	// Applied means the target was mutated to establish the fact.
	Applied Result = iota
	// AlreadyPresent means the fact held before the call and nothing
	// was written.
	AlreadyPresent
)

func (r Result) String() string {
	return []string{"applied", "already-present"}[int(r)]
}

// UnwritableError wraps a failed write to a provisioning target. The
// desired state cannot be verified after such a failure, so callers
// treat it as fatal for the owning step.
type UnwritableError struct {
	Path string
	Err  error
}

func (e *UnwritableError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
}

func (e *UnwritableError) Unwrap() error {
	return e.Err
}
