// Package identity resolves the target user account before any
// mutating step runs. Every templated artifact in the run is derived
// from the resolved Identity.
package identity

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/bubuos/provision/internal/system"
)

// DefaultUsername is the account provisioned when no name is given on
// the command line.
const DefaultUsername = "pi"

// Identity is the resolved target account. Immutable for the lifetime
// of a run.
type Identity struct {
	Username string
	Home     string
	UID      int
	GID      int
}

// UnknownIdentityError means the requested account cannot be
// provisioned. It is raised before any mutation occurs.
type UnknownIdentityError struct {
	Username string
	Reason   string
}

func (e *UnknownIdentityError) Error() string {
	return fmt.Sprintf("unknown identity %q: %s", e.Username, e.Reason)
}

// Resolver validates account names against the user database and the
// filesystem.
type Resolver struct {
	sys    system.System
	lookup func(name string) (*user.User, error)
}

func NewResolver(sys system.System) *Resolver {
	return &Resolver{sys: sys, lookup: user.Lookup}
}

// Resolve returns the Identity for name, defaulting to DefaultUsername
// when name is empty. The account must exist and its home directory
// must be present, otherwise the run must not proceed.
func (r *Resolver) Resolve(name string) (*Identity, error) {
	if name == "" {
		name = DefaultUsername
	}

	u, err := r.lookup(name)
	if err != nil {
		return nil, &UnknownIdentityError{Username: name, Reason: "no such user account"}
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, &UnknownIdentityError{Username: name, Reason: fmt.Sprintf("malformed uid %q", u.Uid)}
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, &UnknownIdentityError{Username: name, Reason: fmt.Sprintf("malformed gid %q", u.Gid)}
	}

	home := u.HomeDir
	if home == "" {
		home = "/home/" + name
	}
	if !r.sys.IsDir(home) {
		return nil, &UnknownIdentityError{Username: name, Reason: fmt.Sprintf("home directory %s does not exist", home)}
	}

	return &Identity{Username: name, Home: home, UID: uid, GID: gid}, nil
}
