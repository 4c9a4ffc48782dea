package provision

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/identity"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// fakeRunner records helper invocations and can be told to fail a
// given binary. onRun lets a test give a successful invocation a side
// effect, like a git clone materializing its checkout.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	onRun func(name string, args ...string)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: make(map[string]error)}
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	if err := r.fail[name]; err != nil {
		return err
	}
	if r.onRun != nil {
		r.onRun(name, args...)
	}
	return nil
}

func (r *fakeRunner) callsFor(name string) []string {
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, name+" ") || c == name {
			out = append(out, c)
		}
	}
	return out
}

// fakeApt records install/remove requests.
type fakeApt struct {
	installed  [][]string
	removed    [][]string
	installErr error
	removeErr  error
}

func (a *fakeApt) Install(ctx context.Context, packages []string) error {
	if a.installErr != nil {
		return a.installErr
	}
	a.installed = append(a.installed, packages)
	return nil
}

func (a *fakeApt) Remove(ctx context.Context, packages []string) error {
	if a.removeErr != nil {
		return a.removeErr
	}
	a.removed = append(a.removed, packages)
	return nil
}

// fakeSystemd records unit operations.
type fakeSystemd struct {
	enabled  []string
	disabled []string
	started  []string
	reloads  int

	enableErr  map[string]error
	disableErr map[string]error
	startErr   map[string]error
	reloadErr  error
}

func newFakeSystemd() *fakeSystemd {
	return &fakeSystemd{
		enableErr:  make(map[string]error),
		disableErr: make(map[string]error),
		startErr:   make(map[string]error),
	}
}

func (s *fakeSystemd) Enable(ctx context.Context, unit string) error {
	if err := s.enableErr[unit]; err != nil {
		return err
	}
	s.enabled = append(s.enabled, unit)
	return nil
}

func (s *fakeSystemd) Disable(ctx context.Context, unit string) error {
	if err := s.disableErr[unit]; err != nil {
		return err
	}
	s.disabled = append(s.disabled, unit)
	return nil
}

func (s *fakeSystemd) Start(ctx context.Context, unit string) error {
	if err := s.startErr[unit]; err != nil {
		return err
	}
	s.started = append(s.started, unit)
	return nil
}

func (s *fakeSystemd) Reload(ctx context.Context) error {
	if s.reloadErr != nil {
		return s.reloadErr
	}
	s.reloads++
	return nil
}

func aliceHolder() *IdentityHolder {
	return &IdentityHolder{id: &identity.Identity{
		Username: "alice",
		Home:     "/home/alice",
		UID:      1000,
		GID:      1000,
	}}
}

func resolveAlice(username string) (*identity.Identity, error) {
	if username != "alice" && username != "" {
		return nil, &identity.UnknownIdentityError{Username: username, Reason: "no such user account"}
	}
	return &identity.Identity{Username: "alice", Home: "/home/alice", UID: 1000, GID: 1000}, nil
}
