// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/preflight"
)

var (
	preflightBackupDest string
	preflightExplain    bool

	preflightCmd = &cobra.Command{
		Use:   "preflight",
		Short: "Verify host preconditions without changing anything",
		Long: `Runs every precondition check the provisioning pipeline requires:
administrator rights, the WSL virtualization subsystem, the backup
destination, and the external tools the pipeline shells out to.

Nothing is mutated. Each failed check is reported separately; with
--explain, remediation guidance is rendered for every failure.`,
		RunE: runPreflight,
	}
)

func init() {
	preflightCmd.Flags().StringVar(&preflightBackupDest, "backup-dest", "", "backup destination to verify (default from config)")
	preflightCmd.Flags().BoolVar(&preflightExplain, "explain", false, "render remediation guidance for failed checks")
}

func runPreflight(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest := cfg.Backup.Dest
	if preflightBackupDest != "" {
		dest = preflightBackupDest
	}

	checker := preflight.New(dest, preflight.DefaultTools, true)
	failures := checker.Run(cmd.Context())

	fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render("Preflight"))
	if len(failures) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("  ✓ all preconditions satisfied"))
		return nil
	}

	for _, f := range failures {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %v\n", ErrorStyle.Render("✗"), f.Check, f.Err)
		if preflightExplain {
			if entry := issue.Lookup(f.IssueId); entry != nil {
				if md, err := entry.Render(""); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), md)
				}
			}
		}
	}
	if !preflightExplain {
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("  re-run with --explain for remediation guidance"))
	}

	fmt.Fprintln(os.Stderr, formatErrorForDisplay(preflight.FirstError(failures), verbose))
	return &ExitError{Code: 1}
}
