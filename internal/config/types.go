// SPDX-License-Identifier: MPL-2.0

package config

import (
	"path/filepath"
	"runtime"

	"networkbuster-cli/pkg/platform"
)

type (
	// Config is the resolved tool configuration.
	Config struct {
		Distro   DistroConfig   `mapstructure:"distro"`
		Backup   BackupConfig   `mapstructure:"backup"`
		Identity IdentityConfig `mapstructure:"identity"`
		Plan     PlanConfig     `mapstructure:"plan"`
		UI       UIConfig       `mapstructure:"ui"`
	}

	// DistroConfig names the target distribution.
	DistroConfig struct {
		// Name is the WSL distribution identity to provision.
		Name string `mapstructure:"name"`
		// InstallDir is where a re-imported filesystem lives (Windows host path).
		InstallDir string `mapstructure:"install_dir"`
	}

	// BackupConfig parameterizes backup bundles and their schedule.
	BackupConfig struct {
		// Dest is the bundle destination; it must exist before any run.
		Dest string `mapstructure:"dest"`
		// ScheduleTime is the daily trigger time, HH:MM.
		ScheduleTime string `mapstructure:"schedule_time"`
		// ScheduleName is the cron.d entry name.
		ScheduleName string `mapstructure:"schedule_name"`
	}

	// IdentityConfig names the dedicated account.
	IdentityConfig struct {
		User  string `mapstructure:"user"`
		Group string `mapstructure:"group"`
	}

	// PlanConfig points at a package plan override.
	PlanConfig struct {
		// Path is a TOML plan file; empty means the embedded default plan.
		Path string `mapstructure:"path"`
	}

	// UIConfig holds presentation preferences.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the fixed defaults for the current platform.
func DefaultConfig() *Config {
	return &Config{
		Distro: DistroConfig{
			Name:       "NetworkBuster",
			InstallDir: defaultInstallDir(),
		},
		Backup: BackupConfig{
			Dest:         defaultBackupDest(),
			ScheduleTime: "03:30",
			ScheduleName: "networkbuster-backup",
		},
		Identity: IdentityConfig{
			User:  "netbuster",
			Group: "netbuster",
		},
	}
}

func defaultInstallDir() string {
	if runtime.GOOS == platform.Windows {
		return filepath.Join(`C:\`, "WSL", "NetworkBuster")
	}
	return "/var/lib/networkbuster"
}

func defaultBackupDest() string {
	if runtime.GOOS == platform.Windows {
		return filepath.Join(`C:\`, "WSL", "NetworkBuster", "backups")
	}
	return "/var/backups/networkbuster"
}
