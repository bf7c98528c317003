// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"networkbuster-cli/internal/distro"
	"networkbuster-cli/internal/journal"
	"networkbuster-cli/internal/lock"
	"networkbuster-cli/internal/preflight"
	"networkbuster-cli/internal/run"
	"networkbuster-cli/internal/wsl"
)

var (
	repackDistro      string
	repackNewName     string
	repackArchive     string
	repackInstallDir  string
	repackKeepArchive bool

	repackCmd = &cobra.Command{
		Use:   "repack",
		Short: "Export the distribution and re-import it under a new name",
		Long: `Exports the configured distribution to an archive, unregisters the
original, and re-imports the archive under the new name.

The sequence cannot be atomic, so it is hardened instead: the archive is
verified before the original is unregistered, each step is journaled for
resume, and the archive is kept on disk until the import is confirmed.
If anything fails after unregistration, the error names the archive that
restores the environment.`,
		RunE: runRepack,
	}
)

func init() {
	repackCmd.Flags().StringVar(&repackDistro, "distro", "", "source distribution (default from config)")
	repackCmd.Flags().StringVar(&repackNewName, "new-name", "", "identity to re-import under (required)")
	repackCmd.Flags().StringVar(&repackArchive, "archive", "", "export archive path (default: <install-dir>/<distro>-<stamp>.tar)")
	repackCmd.Flags().StringVar(&repackInstallDir, "install-dir", "", "install directory for the re-imported filesystem (default from config)")
	repackCmd.Flags().BoolVar(&repackKeepArchive, "keep-archive", false, "retain the export archive after a confirmed import")
	_ = repackCmd.MarkFlagRequired("new-name")
}

func runRepack(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := distro.Options{
		Distro:      cfg.Distro.Name,
		NewName:     repackNewName,
		InstallDir:  cfg.Distro.InstallDir,
		Archive:     repackArchive,
		KeepArchive: repackKeepArchive,
	}
	if repackDistro != "" {
		opts.Distro = repackDistro
	}
	if repackInstallDir != "" {
		opts.InstallDir = repackInstallDir
	}
	if opts.Archive == "" {
		stamp := time.Now().Format("20060102-150405")
		opts.Archive = filepath.Join(opts.InstallDir, fmt.Sprintf("%s-%s.tar", opts.Distro, stamp))
	}

	// Elevation and the WSL subsystem are verified before anything mutates;
	// repack needs no backup destination.
	checker := preflight.New("", nil, true)
	checker.RequireBackupTarget = false
	if err := preflight.FirstError(checker.Run(cmd.Context())); err != nil {
		return err
	}

	lockFile, err := lockPath()
	if err != nil {
		return err
	}
	release, err := lock.New(lockFile).Acquire()
	if err != nil {
		return err
	}
	defer release()

	jnlPath, err := journalPath("repack")
	if err != nil {
		return err
	}
	jnl, err := journal.Open(jnlPath)
	if err != nil {
		return err
	}

	client := wsl.NewExecClient(run.NewExecRunner(logger()))
	if err := distro.New(client, jnl, logger()).Repack(cmd.Context(), opts); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s distribution re-imported as %s\n",
		SuccessStyle.Render("✓"), ValueStyle.Render(opts.NewName))
	if repackKeepArchive {
		fmt.Fprintf(cmd.OutOrStdout(), "  archive retained at %s\n", ValueStyle.Render(opts.Archive))
	}
	return nil
}
