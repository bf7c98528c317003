// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/journal"
	"networkbuster-cli/internal/run"
	"networkbuster-cli/pkg/types"
)

// StepError reports which step aborted the installation and with what
// exit code, so the CLI can propagate the code unchanged.
type StepError struct {
	Group    string
	Step     string
	ExitCode types.ExitCode
	Stderr   string
	Cause    error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("install step %s/%s: %v", e.Group, e.Step, e.Cause)
	}
	return fmt.Sprintf("install step %s/%s exited %s", e.Group, e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Cause }

// Installer executes a Plan through a runner, journaling completed steps.
type Installer struct {
	runner  run.Runner
	journal *journal.Journal
	logger  *log.Logger
}

// New creates an Installer. The journal may be nil, in which case no
// steps are skipped or recorded.
func New(runner run.Runner, jnl *journal.Journal, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{
		runner:  runner,
		journal: jnl,
		logger:  logger.With("component", "install"),
	}
}

// Apply runs every step of the plan in order. The first failure aborts the
// remainder (fail-stop); already-journaled steps are skipped.
func (i *Installer) Apply(ctx context.Context, plan *Plan) error {
	for _, group := range plan.Groups {
		i.logger.Info("installing group", "group", group.Name, "steps", len(group.Steps))
		for _, step := range group.Steps {
			if done, err := i.stepDone(step.Name); err != nil {
				return err
			} else if done {
				i.logger.Info("step already complete, skipping", "step", step.Name)
				continue
			}

			i.logger.Info("running step", "group", group.Name, "step", step.Name)
			res := i.runner.Run(ctx, run.Script(step.Name, step.Script))
			if res.Err != nil {
				return issue.WrapWithOperation(
					&StepError{Group: group.Name, Step: step.Name, Cause: res.Err},
					"install packages",
				)
			}
			if !res.ExitCode.IsSuccess() {
				return issue.NewErrorContext().
					WithOperation("install packages").
					WithResource(fmt.Sprintf("%s/%s", group.Name, step.Name)).
					WithSuggestion("fix the failing step, then re-run with --resume to skip completed steps").
					Wrap(&StepError{
						Group:    group.Name,
						Step:     step.Name,
						ExitCode: res.ExitCode,
						Stderr:   res.Stderr,
					}).
					BuildError()
			}

			if err := i.markDone(step.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Installer) stepDone(step string) (bool, error) {
	if i.journal == nil {
		return false, nil
	}
	done, err := i.journal.Done("install." + step)
	if err != nil {
		return false, fmt.Errorf("consult journal: %w", err)
	}
	return done, nil
}

func (i *Installer) markDone(step string) error {
	if i.journal == nil {
		return nil
	}
	if err := i.journal.MarkDone("install." + step); err != nil {
		return fmt.Errorf("journal step %s: %w", step, err)
	}
	return nil
}
