// SPDX-License-Identifier: MPL-2.0

package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"networkbuster-cli/internal/testutil"
	"networkbuster-cli/pkg/platform"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Distro.Name != "NetworkBuster" {
		t.Errorf("Distro.Name = %q", cfg.Distro.Name)
	}
	if cfg.Backup.ScheduleTime != "03:30" {
		t.Errorf("Backup.ScheduleTime = %q", cfg.Backup.ScheduleTime)
	}
	if cfg.Backup.ScheduleName != "networkbuster-backup" {
		t.Errorf("Backup.ScheduleName = %q", cfg.Backup.ScheduleName)
	}
	if cfg.Identity.User != "netbuster" || cfg.Identity.Group != "netbuster" {
		t.Errorf("Identity = %+v", cfg.Identity)
	}
	if cfg.Distro.InstallDir == "" || cfg.Backup.Dest == "" {
		t.Error("platform default paths must not be empty")
	}
	if cfg.Plan.Path != "" {
		t.Errorf("Plan.Path default = %q, want empty (embedded plan)", cfg.Plan.Path)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	if runtime.GOOS == platform.Windows || runtime.GOOS == platform.Darwin {
		t.Skip("XDG applies to Linux and friends")
	}
	t.Cleanup(testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/xdg-test"))
	t.Cleanup(Reset)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir returned error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", AppName) {
		t.Errorf("ConfigDir = %q", dir)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/custom/dir")

	dir, err := ConfigDir()
	if err != nil || dir != "/custom/dir" {
		t.Errorf("ConfigDir = %q, %v; want /custom/dir", dir, err)
	}

	state, err := StateDir()
	if err != nil || state != filepath.Join("/custom/dir", "state") {
		t.Errorf("StateDir = %q, %v", state, err)
	}
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Distro.Name != "NetworkBuster" || cfg.Backup.ScheduleTime != "03:30" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMergesConfigFile(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `
distro: name: "NetBusterLab"
backup: {
	dest:          "/mnt/e/backups"
	schedule_time: "04:15"
}
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Distro.Name != "NetBusterLab" {
		t.Errorf("Distro.Name = %q, want NetBusterLab", cfg.Distro.Name)
	}
	if cfg.Backup.Dest != "/mnt/e/backups" || cfg.Backup.ScheduleTime != "04:15" {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	// Untouched keys keep their defaults.
	if cfg.Identity.User != "netbuster" {
		t.Errorf("Identity.User = %q, want default", cfg.Identity.User)
	}
}

func TestLoadExplicitConfigPath(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "lab.cue")
	testutil.MustWriteFile(t, path, `ui: verbose: true`)
	SetConfigFilePathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("explicit config file was not loaded")
	}
}

func TestLoadExplicitConfigPathMissing(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "nope.cue"))

	if _, err := Load(); err == nil {
		t.Fatal("an explicit --config path that does not exist must be an error")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		cue  string
	}{
		{"bad schedule time", `backup: schedule_time: "25:00"`},
		{"empty distro name", `distro: name: ""`},
		{"bad identity user", `identity: user: "Not A User"`},
		{"wrong type", `ui: verbose: "yes"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(Reset)
			dir := t.TempDir()
			SetConfigDirOverride(dir)
			testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), tt.cue)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted invalid config %q", tt.cue)
			}
			if !strings.Contains(err.Error(), "load configuration") {
				t.Errorf("error should come from config loading: %v", err)
			}
		})
	}
}

func TestLoadRejectsInvalidCUESyntax(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `distro: { name: `)

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted syntactically invalid CUE")
	}
}
