// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"networkbuster-cli/internal/backup"
	"networkbuster-cli/internal/run"
	"networkbuster-cli/internal/schedule"
	"networkbuster-cli/internal/wsl"
)

var (
	scheduleTimeFlag string
	scheduleName     string
	scheduleCronDir  string
	scheduleDryRun   bool

	scheduleCmd = &cobra.Command{
		Use:   "schedule",
		Short: "Register the daily backup trigger",
		Long: `Installs the cron entry that runs the backup script once a day at a
fixed time. Registering again with the same name replaces the previous
entry; there is never more than one trigger per name.`,
		RunE: runSchedule,
	}
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleTimeFlag, "schedule-time", "", "daily trigger time, HH:MM (default from config)")
	scheduleCmd.Flags().StringVar(&scheduleName, "name", "", "cron entry name (default from config)")
	scheduleCmd.Flags().StringVar(&scheduleCronDir, "cron-dir", "", "cron.d directory (default /etc/cron.d)")
	scheduleCmd.Flags().BoolVar(&scheduleDryRun, "dry-run", false, "print the cron entry without installing it")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	timeSpec := cfg.Backup.ScheduleTime
	if scheduleTimeFlag != "" {
		timeSpec = scheduleTimeFlag
	}
	at, err := schedule.ParseTimeOfDay(timeSpec)
	if err != nil {
		return err
	}

	base := run.NewExecRunner(logger())
	var target run.Runner = wsl.TargetRunner(cfg.Distro.Name, base)
	if scheduleDryRun {
		target = run.NewDryRunner(target, logger())
	}

	registrant := schedule.New(target, logger())
	if scheduleName != "" {
		registrant.Name = scheduleName
	} else {
		registrant.Name = cfg.Backup.ScheduleName
	}
	if scheduleCronDir != "" {
		registrant.CronDir = scheduleCronDir
	}
	registrant.Command = backup.DefaultScriptPath

	if scheduleDryRun {
		entry, err := registrant.Entry(at)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render("Dry Run"))
		fmt.Fprintf(cmd.OutOrStdout(), "  would write %s:\n", ValueStyle.Render(registrant.Path()))
		fmt.Fprint(cmd.OutOrStdout(), entry)
		return nil
	}

	if err := registrant.Register(cmd.Context(), at); err != nil {
		return err
	}

	next, err := at.NextRun(time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s trigger %s installed; next run %s\n",
		SuccessStyle.Render("✓"), ValueStyle.Render(registrant.Name), next.Format(time.RFC1123))
	return nil
}
