package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/bubuos/provision/internal/provision"
)

type packagesConfig struct {
	Install []string `toml:"install"`
	Remove  []string `toml:"remove"`
}

type networkConfig struct {
	DisableUnit string `toml:"disable_unit"`
	EnableUnit  string `toml:"enable_unit"`
}

type tmpfsConfig struct {
	Mountpoint string `toml:"mountpoint"`
	Options    string `toml:"options"`
}

type filesystemConfig struct {
	Fstab       string        `toml:"fstab"`
	RootOptions []string      `toml:"root_options"`
	Marker      string        `toml:"marker"`
	SwapUnit    string        `toml:"swap_unit"`
	Tmpfs       []tmpfsConfig `toml:"tmpfs"`
}

type patchConfig struct {
	RepoURL string `toml:"repo_url"`
	// Dir is resolved relative to the identity's home directory unless
	// absolute.
	Dir       string `toml:"dir"`
	Installer string `toml:"installer"`
}

type bootConfig struct {
	ConfigPaths  []string `toml:"config_paths"`
	CmdlinePaths []string `toml:"cmdline_paths"`
	Marker       string   `toml:"marker"`
	Fragment     []string `toml:"fragment"`
	CmdlineWords []string `toml:"cmdline_words"`
}

type dataConfig struct {
	Dir     string   `toml:"dir"`
	Subdirs []string `toml:"subdirs"`
}

type serviceConfig struct {
	Unit     string `toml:"unit"`
	UnitDir  string `toml:"unit_dir"`
	Template string `toml:"template"`
}

type sudoersConfig struct {
	File     string   `toml:"file"`
	Commands []string `toml:"commands"`
	Legacy   []string `toml:"legacy"`
}

type setupConfig struct {
	Packages   packagesConfig   `toml:"packages"`
	Network    networkConfig    `toml:"network"`
	Filesystem filesystemConfig `toml:"filesystem"`
	Patch      patchConfig      `toml:"patch"`
	Boot       bootConfig       `toml:"boot"`
	Data       dataConfig       `toml:"data"`
	Service    serviceConfig    `toml:"service"`
	Sudoers    sudoersConfig    `toml:"sudoers"`

	// TimeoutMinutes bounds each external call (package manager,
	// clone, installer).
	TimeoutMinutes int `toml:"timeout_minutes"`
}

func defaultConfig() setupConfig {
	return setupConfig{
		Packages: packagesConfig{
			Install: []string{
				"network-manager",
				"git",
				"xserver-xorg",
				"xinit",
				"python3-pygame",
				"python3-pil",
				"alsa-utils",
			},
		},
		Network: networkConfig{
			DisableUnit: "dhcpcd.service",
			EnableUnit:  "NetworkManager.service",
		},
		Filesystem: filesystemConfig{
			Fstab:       "/etc/fstab",
			RootOptions: []string{"noatime"},
			Marker:      "# bubuos tmpfs mounts",
			SwapUnit:    "dphys-swapfile.service",
			Tmpfs: []tmpfsConfig{
				{Mountpoint: "/var/log", Options: "defaults,noatime,nosuid,size=64m"},
				{Mountpoint: "/tmp", Options: "defaults,noatime,nosuid,size=128m"},
			},
		},
		Patch: patchConfig{
			RepoURL:   "https://github.com/RetroFlag/GPiCase2-Script.git",
			Dir:       "GPiCase2-Script",
			Installer: "GPiCase2_patch/patch_install.sh",
		},
		Boot: bootConfig{
			ConfigPaths:  []string{"/boot/firmware/config.txt", "/boot/config.txt"},
			CmdlinePaths: []string{"/boot/firmware/cmdline.txt", "/boot/cmdline.txt"},
			Marker:       "# bubuos display",
			Fragment: []string{
				"disable_splash=1",
				"dtparam=audio=on",
				"hdmi_force_hotplug=1",
			},
			CmdlineWords: []string{"quiet"},
		},
		Data: dataConfig{
			Dir:     "data",
			Subdirs: []string{"documents", "music", "video", "pictures"},
		},
		Service: serviceConfig{
			Unit:    "bubuos.service",
			UnitDir: "/etc/systemd/system",
		},
		Sudoers: sudoersConfig{
			File:     "/etc/sudoers.d/bubuos",
			Commands: []string{"/usr/bin/nmcli", "/usr/sbin/rfkill"},
			Legacy:   []string{"/etc/sudoers.d/nmcli-bubuos"},
		},
		TimeoutMinutes: 10,
	}
}

func parseConfig(file string) (*setupConfig, error) {
	config := defaultConfig()

	_, err := toml.DecodeFile(file, &config)
	if err != nil {
		// A non-existing config isn't an error, use defaults in this
		// case.
		if !os.IsNotExist(err) {
			return nil, err
		}
		logrus.Debug("configuration file not found, using defaults")
	}

	if config.TimeoutMinutes <= 0 {
		return nil, fmt.Errorf("timeout_minutes must be positive, got %d", config.TimeoutMinutes)
	}
	for _, cmd := range config.Sudoers.Commands {
		if !filepath.IsAbs(cmd) {
			return nil, fmt.Errorf("sudoers command %q must be an absolute path", cmd)
		}
	}
	if len(config.Boot.ConfigPaths) == 0 {
		return nil, fmt.Errorf("boot.config_paths must name at least one candidate path")
	}

	return &config, nil
}

func (c *setupConfig) plan(username string) provision.Plan {
	tmpfs := make([]provision.TmpfsMount, 0, len(c.Filesystem.Tmpfs))
	for _, m := range c.Filesystem.Tmpfs {
		tmpfs = append(tmpfs, provision.TmpfsMount{Mountpoint: m.Mountpoint, Options: m.Options})
	}

	return provision.Plan{
		Username: username,

		InstallPackages: c.Packages.Install,
		RemovePackages:  c.Packages.Remove,
		DisableUnit:     c.Network.DisableUnit,
		EnableUnit:      c.Network.EnableUnit,

		SwapUnit: c.Filesystem.SwapUnit,

		FstabPath:   c.Filesystem.Fstab,
		RootOptions: c.Filesystem.RootOptions,
		TmpfsMounts: tmpfs,
		FstabMarker: c.Filesystem.Marker,

		PatchRepoURL:   c.Patch.RepoURL,
		PatchDir:       c.Patch.Dir,
		PatchInstaller: c.Patch.Installer,

		BootConfigPaths: c.Boot.ConfigPaths,
		CmdlinePaths:    c.Boot.CmdlinePaths,
		BootMarker:      c.Boot.Marker,
		BootFragment:    c.Boot.Fragment,
		CmdlineWords:    c.Boot.CmdlineWords,

		DataDirName: c.Data.Dir,
		DataSubdirs: c.Data.Subdirs,

		UnitName:         c.Service.Unit,
		UnitDir:          c.Service.UnitDir,
		UnitTemplatePath: c.Service.Template,

		SudoersPath:     c.Sudoers.File,
		SudoersCommands: c.Sudoers.Commands,
		SudoersLegacy:   c.Sudoers.Legacy,
	}
}
