// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"networkbuster-cli/internal/backup"
	"networkbuster-cli/internal/preflight"
	"networkbuster-cli/internal/run"
	"networkbuster-cli/internal/wsl"
	"networkbuster-cli/pkg/platform"
)

var (
	backupDest   string
	backupDistro string
	backupDryRun bool

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Create one backup bundle now",
		Long: `Creates a timestamped bundle under the backup destination: one
compressed archive per source (configuration, application data, logs)
plus the package-selection manifest.

Per-source failures are skipped, never fatal — a bundle with a manifest
is produced even when every archive step fails.`,
		RunE: runBackup,
	}

	backupScriptOut string

	backupScriptCmd = &cobra.Command{
		Use:   "backup-script",
		Short: "Emit the standalone backup shell script",
		Long: `Generates the shell script equivalent of 'networkbuster backup', the
one the daily cron trigger invokes. The script is emitted in canonical
shell formatting and is guaranteed to parse.`,
		RunE: runBackupScript,
	}
)

func init() {
	backupCmd.Flags().StringVar(&backupDest, "backup-dest", "", "backup destination (default from config)")
	backupCmd.Flags().StringVar(&backupDistro, "distro", "", "distribution to back up (default from config)")
	backupCmd.Flags().BoolVar(&backupDryRun, "dry-run", false, "show what would be archived without writing")

	backupScriptCmd.Flags().StringVar(&backupScriptOut, "out", "", "write the script to this file (default: stdout)")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest := cfg.Backup.Dest
	if backupDest != "" {
		dest = backupDest
	}
	distroName := cfg.Distro.Name
	if backupDistro != "" {
		distroName = backupDistro
	}

	// Backups need no virtualization; only the destination and tar.
	checker := preflight.New(dest, []string{"tar"}, false)
	if err := preflight.FirstError(checker.Run(cmd.Context())); err != nil {
		return err
	}

	sources := backup.DefaultSources()
	if runtime.GOOS == platform.Windows {
		// The host reaches the distribution filesystem through its \\wsl$
		// share; the manifest dump runs inside the distribution itself.
		for i := range sources {
			sources[i].Path = wsl.UNCPath(distroName, sources[i].Path)
		}
	}
	if backupDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render("Dry Run"))
		fmt.Fprintf(cmd.OutOrStdout(), "  would create a bundle under %s with:\n", ValueStyle.Render(dest))
		for _, src := range sources {
			fmt.Fprintf(cmd.OutOrStdout(), "    %-8s %s\n", src.Name, src.Path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "    %-8s dpkg --get-selections\n", "manifest")
		return nil
	}

	target := wsl.TargetRunner(distroName, run.NewExecRunner(logger()))
	runner := backup.New(dest, sources, target, logger())
	bundle, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), bundle.Summary())
	if skipped := bundle.Skipped(); len(skipped) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), WarningStyle.Render(fmt.Sprintf("  %d source(s) skipped", len(skipped))))
	}
	return nil
}

func runBackupScript(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	script, err := backup.GenerateScript(backup.DefaultScriptConfig(cfg.Backup.Dest))
	if err != nil {
		return err
	}

	if backupScriptOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), script)
		return nil
	}
	if err := os.WriteFile(backupScriptOut, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write script %s: %w", backupScriptOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", ValueStyle.Render(backupScriptOut))
	return nil
}
