// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"networkbuster-cli/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE:  runConfigShow,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Configuration"))
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("config dir:"), cfgDir)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  distro.name          %s\n", ValueStyle.Render(cfg.Distro.Name))
	fmt.Fprintf(out, "  distro.install_dir   %s\n", ValueStyle.Render(cfg.Distro.InstallDir))
	fmt.Fprintf(out, "  backup.dest          %s\n", ValueStyle.Render(cfg.Backup.Dest))
	fmt.Fprintf(out, "  backup.schedule_time %s\n", ValueStyle.Render(cfg.Backup.ScheduleTime))
	fmt.Fprintf(out, "  backup.schedule_name %s\n", ValueStyle.Render(cfg.Backup.ScheduleName))
	fmt.Fprintf(out, "  identity.user        %s\n", ValueStyle.Render(cfg.Identity.User))
	fmt.Fprintf(out, "  identity.group       %s\n", ValueStyle.Render(cfg.Identity.Group))
	if cfg.Plan.Path != "" {
		fmt.Fprintf(out, "  plan.path            %s\n", ValueStyle.Render(cfg.Plan.Path))
	} else {
		fmt.Fprintf(out, "  plan.path            %s\n", SubtitleStyle.Render("(embedded default plan)"))
	}
	return nil
}
