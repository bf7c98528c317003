// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"networkbuster-cli/internal/backup"
	"networkbuster-cli/internal/branding"
	"networkbuster-cli/internal/config"
	"networkbuster-cli/internal/identity"
	"networkbuster-cli/internal/install"
	"networkbuster-cli/internal/journal"
	"networkbuster-cli/internal/lock"
	"networkbuster-cli/internal/preflight"
	"networkbuster-cli/internal/run"
	"networkbuster-cli/internal/schedule"
	"networkbuster-cli/internal/wsl"
)

var (
	provisionDistro     string
	provisionBackupDest string
	provisionTime       string
	provisionPlanPath   string
	provisionDryRun     bool
	provisionResume     bool

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Run the full provisioning pipeline",
		Long: `Runs the complete pipeline, in order: preflight checks, package
installation (system, cloud CLIs, Python/Node), identity and directory
provisioning, branding files, backup script installation, and backup
schedule registration.

The run is fail-stop: the first failing step aborts the rest and its
exit code is propagated. Completed steps are journaled, so a failed run
can be continued with --resume instead of repeating finished work.`,
		RunE: runProvision,
	}
)

func init() {
	provisionCmd.Flags().StringVar(&provisionDistro, "distro", "", "target distribution name (default from config)")
	provisionCmd.Flags().StringVar(&provisionBackupDest, "backup-dest", "", "backup destination (default from config)")
	provisionCmd.Flags().StringVar(&provisionTime, "schedule-time", "", "daily backup time, HH:MM (default from config)")
	provisionCmd.Flags().StringVar(&provisionPlanPath, "plan", "", "package plan TOML file (default: embedded plan)")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "preview mutating steps without executing them")
	provisionCmd.Flags().BoolVar(&provisionResume, "resume", false, "skip steps journaled by a previous aborted run")
}

func runProvision(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyProvisionOverrides(cfg)

	scheduleTime, err := schedule.ParseTimeOfDay(cfg.Backup.ScheduleTime)
	if err != nil {
		return err
	}

	plan, err := resolvePlan(cfg)
	if err != nil {
		return err
	}

	// Preflight rejects before any mutating step runs, dry-run or not.
	checker := preflight.New(cfg.Backup.Dest, preflight.DefaultTools, true)
	if err := preflight.FirstError(checker.Run(cmd.Context())); err != nil {
		return err
	}

	if !provisionDryRun {
		lockFile, err := lockPath()
		if err != nil {
			return err
		}
		release, err := lock.New(lockFile).Acquire()
		if err != nil {
			return err
		}
		defer release()
	}

	jnl, runID, err := provisionJournal()
	if err != nil {
		return err
	}

	base := run.NewExecRunner(logger())
	var target run.Runner = wsl.TargetRunner(cfg.Distro.Name, base)
	if provisionDryRun {
		target = run.NewDryRunner(target, logger())
	}

	if err := runPipeline(cmd.Context(), cfg, plan, scheduleTime, target, jnl, runID); err != nil {
		return exitCodeError(err)
	}

	if jnl != nil {
		if err := jnl.Clear(); err != nil {
			logger().Warn("could not clear journal", "err", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ provisioning complete"))
	fmt.Fprintf(cmd.OutOrStdout(), "  distro   %s\n", ValueStyle.Render(cfg.Distro.Name))
	fmt.Fprintf(cmd.OutOrStdout(), "  backups  %s daily at %s\n", ValueStyle.Render(cfg.Backup.Dest), scheduleTime)
	return nil
}

func applyProvisionOverrides(cfg *config.Config) {
	if provisionDistro != "" {
		cfg.Distro.Name = provisionDistro
	}
	if provisionBackupDest != "" {
		cfg.Backup.Dest = provisionBackupDest
	}
	if provisionTime != "" {
		cfg.Backup.ScheduleTime = provisionTime
	}
	if provisionPlanPath != "" {
		cfg.Plan.Path = provisionPlanPath
	}
}

func resolvePlan(cfg *config.Config) (*install.Plan, error) {
	if cfg.Plan.Path != "" {
		return install.LoadPlan(cfg.Plan.Path)
	}
	return install.DefaultPlan()
}

// provisionJournal opens the resume journal for a real run. A dry run
// gets no journal at all — previewed steps are not completed steps, and
// journaling them would make a later --resume skip work that never
// happened.
func provisionJournal() (*journal.Journal, string, error) {
	if provisionDryRun {
		return nil, uuid.NewString(), nil
	}
	jnl, err := openProvisionJournal()
	if err != nil {
		return nil, "", err
	}
	return jnl, jnl.RunID(), nil
}

// openProvisionJournal opens the provision journal, discarding any stale
// one unless this is an explicit resume.
func openProvisionJournal() (*journal.Journal, error) {
	path, err := journalPath("provision")
	if err != nil {
		return nil, err
	}
	jnl, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	if !provisionResume {
		if err := jnl.Clear(); err != nil {
			return nil, err
		}
		return journal.Open(path)
	}
	return jnl, nil
}

// runPipeline executes the mutating stages in their fixed order.
func runPipeline(ctx context.Context, cfg *config.Config, plan *install.Plan, at schedule.TimeOfDay, target run.Runner, jnl *journal.Journal, runID string) error {
	installer := install.New(target, jnl, logger())
	if err := installer.Apply(ctx, plan); err != nil {
		return err
	}

	layout := identity.DefaultLayout()
	layout.User = cfg.Identity.User
	layout.Group = cfg.Identity.Group
	if err := identity.New(target, logger()).Apply(ctx, layout); err != nil {
		return err
	}

	info := branding.Info{
		DistroName: cfg.Distro.Name,
		Version:    Version,
		RunID:      runID,
		Time:       time.Now(),
	}
	if err := branding.New(target, logger()).Write(ctx, info); err != nil {
		return err
	}

	scriptCfg := backup.DefaultScriptConfig(cfg.Backup.Dest)
	if err := backup.InstallScript(ctx, target, scriptCfg, backup.DefaultScriptPath); err != nil {
		return err
	}

	registrant := schedule.New(target, logger())
	registrant.Name = cfg.Backup.ScheduleName
	registrant.Command = backup.DefaultScriptPath
	return registrant.Register(ctx, at)
}
