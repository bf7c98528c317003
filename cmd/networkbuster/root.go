// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"networkbuster-cli/internal/config"
	"networkbuster-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "networkbuster",
		Short: "Provision and maintain the NetworkBuster WSL distribution",
		Long: TitleStyle.Render("networkbuster") + SubtitleStyle.Render(" - WSL distribution provisioning") + `

networkbuster automates the lifecycle of a custom WSL-based Ubuntu
distribution: precondition checks, package installation (system, cloud
CLIs, Python/Node ecosystems), a dedicated user and directory layout,
branding files, daily backup bundles with a cron trigger, and
export/re-import repackaging of the distribution image.

` + SubtitleStyle.Render("Typical flow:") + `
  1. networkbuster preflight          Verify the host is ready
  2. networkbuster provision          Run the full pipeline
  3. networkbuster repack --new-name NetworkBuster   Repackage the image

` + SubtitleStyle.Render("Examples:") + `
  networkbuster provision --dry-run             Preview every mutating step
  networkbuster backup                          Create one backup bundle now
  networkbuster schedule --schedule-time 02:00  Move the daily trigger
  networkbuster config show                     Show resolved configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/networkbuster/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(preflightCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(backupScriptCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(repackCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig applies the --config override and the verbose preference.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// loadConfig resolves the configuration for a command handler.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger returns the CLI logger for a pipeline component.
func logger() *log.Logger {
	return log.Default()
}

// journalPath returns the step journal file for the named pipeline.
func journalPath(name string) (string, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, name+".journal.json"), nil
}

// lockPath returns the run lock file path.
func lockPath() (string, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "run.lock"), nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
