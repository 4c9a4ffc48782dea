package identity

import (
	"fmt"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bubuos/provision/internal/system"
)

func fakeLookup(known map[string]*user.User) func(string) (*user.User, error) {
	return func(name string) (*user.User, error) {
		if u, ok := known[name]; ok {
			return u, nil
		}
		return nil, fmt.Errorf("user: unknown user %s", name)
	}
}

func TestResolve(t *testing.T) {
	mem := system.NewMemory()
	mem.AddDir("/home/alice")

	resolver := NewResolver(mem)
	resolver.lookup = fakeLookup(map[string]*user.User{
		"alice": {Username: "alice", Uid: "1000", Gid: "1000", HomeDir: "/home/alice"},
	})

	id, err := resolver.Resolve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "/home/alice", id.Home)
	assert.Equal(t, 1000, id.UID)
	assert.Equal(t, 1000, id.GID)
}

func TestResolveDefaultsUsername(t *testing.T) {
	mem := system.NewMemory()
	mem.AddDir("/home/pi")

	resolver := NewResolver(mem)
	resolver.lookup = fakeLookup(map[string]*user.User{
		"pi": {Username: "pi", Uid: "1000", Gid: "1000", HomeDir: "/home/pi"},
	})

	id, err := resolver.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultUsername, id.Username)
}

func TestResolveUnknownUser(t *testing.T) {
	resolver := NewResolver(system.NewMemory())
	resolver.lookup = fakeLookup(nil)

	_, err := resolver.Resolve("ghost")
	var unknown *UnknownIdentityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Username)
}

func TestResolveMissingHome(t *testing.T) {
	// account exists in the user database but the home tree is gone
	resolver := NewResolver(system.NewMemory())
	resolver.lookup = fakeLookup(map[string]*user.User{
		"alice": {Username: "alice", Uid: "1000", Gid: "1000", HomeDir: "/home/alice"},
	})

	_, err := resolver.Resolve("alice")
	var unknown *UnknownIdentityError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Reason, "/home/alice")
}

func TestResolveEmptyHomeDirFallsBack(t *testing.T) {
	mem := system.NewMemory()
	mem.AddDir("/home/kiosk")

	resolver := NewResolver(mem)
	resolver.lookup = fakeLookup(map[string]*user.User{
		"kiosk": {Username: "kiosk", Uid: "1001", Gid: "1001"},
	})

	id, err := resolver.Resolve("kiosk")
	require.NoError(t, err)
	assert.Equal(t, "/home/kiosk", id.Home)
}
