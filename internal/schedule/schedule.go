// SPDX-License-Identifier: MPL-2.0

// Package schedule registers the recurring backup trigger as a cron.d
// entry. Re-registration with the same name overwrites the previous entry
// wholesale, so exactly one trigger exists per name.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/run"
)

const (
	// DefaultName is the cron.d entry name for the backup trigger.
	DefaultName = "networkbuster-backup"
	// DefaultCronDir is where the entry is installed inside the distribution.
	DefaultCronDir = "/etc/cron.d"
	// DefaultCommand is what the trigger invokes.
	DefaultCommand = "/usr/local/bin/networkbuster-backup.sh"
)

type (
	// TimeOfDay is a daily HH:MM trigger time.
	TimeOfDay struct {
		Hour   int
		Minute int
	}

	// Registrant installs the trigger through a runner.
	Registrant struct {
		// Name identifies the cron.d entry; same name replaces.
		Name string
		// CronDir is the cron.d directory (overridable for tests).
		CronDir string
		// Command is the command line the trigger runs, as root.
		Command string

		runner run.Runner
		logger *log.Logger
	}
)

// ParseTimeOfDay parses "HH:MM" in 24-hour time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid schedule time %q (want HH:MM)", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid schedule hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid schedule minute %q", parts[1])
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String renders the time back as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CronExpr renders the daily five-field cron expression.
func (t TimeOfDay) CronExpr() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// NextRun computes the first activation after now.
func (t TimeOfDay) NextRun(now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(t.CronExpr())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", t.CronExpr(), err)
	}
	return sched.Next(now), nil
}

// New creates a Registrant with the fixed defaults.
func New(runner run.Runner, logger *log.Logger) *Registrant {
	if logger == nil {
		logger = log.Default()
	}
	return &Registrant{
		Name:    DefaultName,
		CronDir: DefaultCronDir,
		Command: DefaultCommand,
		runner:  runner,
		logger:  logger.With("component", "schedule"),
	}
}

// Entry renders the cron.d file content for the trigger. The expression is
// validated before rendering so a bad time can never reach cron.
func (r *Registrant) Entry(t TimeOfDay) (string, error) {
	if _, err := cron.ParseStandard(t.CronExpr()); err != nil {
		return "", fmt.Errorf("invalid schedule %s: %w", t, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: daily backup trigger. Managed; edits are overwritten.\n", r.Name)
	b.WriteString("SHELL=/bin/sh\n")
	b.WriteString("PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin\n")
	fmt.Fprintf(&b, "%s root %s\n", t.CronExpr(), r.Command)
	return b.String(), nil
}

// Path returns the cron.d file path for the entry.
func (r *Registrant) Path() string {
	return r.CronDir + "/" + r.Name
}

// Register installs the trigger, replacing any previous entry of the same
// name (the cron.d file is overwritten wholesale, never appended).
func (r *Registrant) Register(ctx context.Context, t TimeOfDay) error {
	entry, err := r.Entry(t)
	if err != nil {
		return err
	}

	path := r.Path()
	r.logger.Info("registering backup trigger", "path", path, "time", t)

	script := fmt.Sprintf("cat > %s <<'NETWORKBUSTER_EOF'\n%sNETWORKBUSTER_EOF\nchmod 644 %s", path, entry, path)
	res := r.runner.Run(ctx, run.Script("schedule.register", script))
	if res.Err != nil || !res.ExitCode.IsSuccess() {
		cause := res.Err
		if cause == nil {
			cause = fmt.Errorf("exited %s: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return issue.NewErrorContext().
			WithOperation("register backup schedule").
			WithResource(path).
			WithSuggestion("check that cron is installed in the distribution").
			Wrap(cause).
			BuildError()
	}
	return nil
}
