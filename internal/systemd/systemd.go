// Package systemd is the service-manager collaborator. Unit state is
// driven over the system D-Bus rather than by shelling out to
// systemctl, so failures carry structured causes.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sysdbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
)

type Manager interface {
	// Enable marks unit for start on boot.
	Enable(ctx context.Context, unit string) error
	// Disable unmarks unit. A unit that does not exist or is already
	// disabled is treated as success.
	Disable(ctx context.Context, unit string) error
	// Start starts unit and waits for the job to settle.
	Start(ctx context.Context, unit string) error
	// Reload reloads the manager's unit index (daemon-reload).
	Reload(ctx context.Context) error
}

// DBus implements Manager using the org.freedesktop.systemd1 API.
type DBus struct {
	conn *sysdbus.Conn
}

func NewDBus(ctx context.Context) (*DBus, error) {
	conn, err := sysdbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to systemd: %w", err)
	}
	return &DBus{conn: conn}, nil
}

func (d *DBus) Close() {
	d.conn.Close()
}

func (d *DBus) Enable(ctx context.Context, unit string) error {
	_, _, err := d.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true)
	if err != nil {
		return fmt.Errorf("enabling %s: %w", unit, err)
	}
	return nil
}

func (d *DBus) Disable(ctx context.Context, unit string) error {
	_, err := d.conn.DisableUnitFilesContext(ctx, []string{unit}, false)
	if err != nil {
		if unitMissing(err) {
			return nil
		}
		return fmt.Errorf("disabling %s: %w", unit, err)
	}
	return nil
}

func (d *DBus) Start(ctx context.Context, unit string) error {
	result := make(chan string, 1)
	if _, err := d.conn.StartUnitContext(ctx, unit, "replace", result); err != nil {
		return fmt.Errorf("starting %s: %w", unit, err)
	}
	select {
	case r := <-result:
		if r != "done" {
			return fmt.Errorf("starting %s: job finished as %q", unit, r)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("starting %s: %w", unit, ctx.Err())
	}
}

func (d *DBus) Reload(ctx context.Context) error {
	if err := d.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	return nil
}

func unitMissing(err error) bool {
	var dbusErr godbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.systemd1.NoSuchUnit", "org.freedesktop.DBus.Error.FileNotFound":
			return true
		}
	}
	return strings.Contains(err.Error(), "does not exist") ||
		strings.Contains(err.Error(), "No such file")
}
