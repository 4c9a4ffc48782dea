package provision

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/bubuos/provision/internal/identity"
	"github.com/bubuos/provision/internal/system"
	"github.com/bubuos/provision/internal/systemd"
)

//go:embed templates/bubuos.service
var unitTemplates embed.FS

const defaultUnitTemplate = "templates/bubuos.service"

// ServiceStep materializes the per-identity data tree and the appliance
// service unit, then hands the unit to the service manager. Rendering
// the unit for the same identity is byte-deterministic, so re-runs
// rewrite nothing. Depends on the resolved identity and the installed
// package set.
type ServiceStep struct {
	Sys     system.System
	Systemd systemd.Manager
	Holder  *IdentityHolder

	DataDirName string
	DataSubdirs []string

	UnitName string
	UnitDir  string
	// TemplatePath overrides the embedded unit template when set.
	TemplatePath string
}

func (s *ServiceStep) Name() string {
	return "provision service"
}

func (s *ServiceStep) Policy() FailurePolicy {
	return AbortRun
}

func (s *ServiceStep) Run(ctx context.Context) (Outcome, error) {
	id := s.Holder.Identity()
	outcome := Unchanged

	changed, err := s.ensureDataTree(id)
	if err != nil {
		return 0, err
	}
	if changed {
		outcome = Changed
	}

	rendered, err := s.renderUnit(id)
	if err != nil {
		return 0, err
	}

	unitPath := filepath.Join(s.UnitDir, s.UnitName)
	existing, err := s.Sys.ReadFile(unitPath)
	if err != nil || !bytes.Equal(existing, rendered) {
		if err := s.Sys.WriteFile(unitPath, rendered, 0644); err != nil {
			return 0, fmt.Errorf("writing unit %s: %w", unitPath, err)
		}
		if err := s.Systemd.Reload(ctx); err != nil {
			return 0, &ServiceEnableError{Unit: s.UnitName, Err: err}
		}
		outcome = Changed
	}

	if err := s.Systemd.Enable(ctx, s.UnitName); err != nil {
		return 0, &ServiceEnableError{Unit: s.UnitName, Err: err}
	}

	return outcome, nil
}

// ensureDataTree creates home/<DataDirName>/<subdir> for every subdir
// and (re)applies ownership, correcting a tree left half-chowned by an
// interrupted earlier run.
func (s *ServiceStep) ensureDataTree(id *identity.Identity) (bool, error) {
	root := filepath.Join(id.Home, s.DataDirName)
	changed := false

	dirs := []string{root}
	for _, sub := range s.DataSubdirs {
		dirs = append(dirs, filepath.Join(root, sub))
	}

	for _, dir := range dirs {
		if !s.Sys.IsDir(dir) {
			if err := s.Sys.MkdirAll(dir, os.FileMode(0755)); err != nil {
				return false, fmt.Errorf("creating %s: %w", dir, err)
			}
			changed = true
		}
		if err := s.Sys.Chown(dir, id.UID, id.GID); err != nil {
			return false, fmt.Errorf("chown %s: %w", dir, err)
		}
	}
	return changed, nil
}

func (s *ServiceStep) renderUnit(id *identity.Identity) ([]byte, error) {
	var text []byte
	var err error

	if s.TemplatePath != "" {
		text, err = s.Sys.ReadFile(s.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("reading unit template %s: %w", s.TemplatePath, err)
		}
	} else {
		text, err = unitTemplates.ReadFile(defaultUnitTemplate)
		if err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New(s.UnitName).Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parsing unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, id); err != nil {
		return nil, fmt.Errorf("rendering unit template: %w", err)
	}
	return buf.Bytes(), nil
}
