// SPDX-License-Identifier: MPL-2.0

// Package preflight verifies host preconditions before any mutating step
// runs. Every check failure is fatal to the run; there are no retries.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"networkbuster-cli/internal/issue"
)

type (
	// Failure describes one failed precondition. Check is the stable check
	// name, IssueId points at the remediation catalog entry, and Err is the
	// human-readable cause.
	Failure struct {
		Check   string
		IssueId issue.Id
		Err     error
	}

	// Checker runs the ordered precondition checks. The zero value is not
	// usable; construct with New.
	Checker struct {
		// BackupDir is the backup destination that must already exist.
		BackupDir string

		// RequireBackupTarget gates the backup-destination check. Repack
		// mutates WSL state but writes no bundles, so it runs without one.
		RequireBackupTarget bool

		// RequiredTools are executables that must be on PATH.
		RequiredTools []string

		// NeedVirtualization requires the WSL subsystem (wsl.exe on a
		// Windows host, a WSL kernel inside the distribution). Repack and
		// provision need it; a plain backup run does not.
		NeedVirtualization bool

		// Test seams. Nil fields use the real implementations.
		lookPath func(string) (string, error)
		stat     func(string) (os.FileInfo, error)
		elevated func() (bool, error)
		virt     func(func(string) (string, error)) error
	}
)

// DefaultTools is the external tool set the provisioning pipeline shells
// out to inside the distribution.
var DefaultTools = []string{"sh", "tar"}

// New creates a Checker wired to the real host.
func New(backupDir string, tools []string, needVirt bool) *Checker {
	return &Checker{
		BackupDir:           backupDir,
		RequireBackupTarget: true,
		RequiredTools:       tools,
		NeedVirtualization:  needVirt,
		lookPath:            exec.LookPath,
		stat:                os.Stat,
		elevated:            isElevated,
		virt:                virtualizationAvailable,
	}
}

// Run executes all checks in order and returns every failure, so the user
// sees the complete list in one pass instead of fixing one at a time.
// An empty slice means all preconditions hold.
func (c *Checker) Run(ctx context.Context) []Failure {
	var failures []Failure

	add := func(check string, id issue.Id, err error) {
		if err != nil {
			failures = append(failures, Failure{Check: check, IssueId: id, Err: err})
		}
	}

	if ctx.Err() != nil {
		add("context", 0, ctx.Err())
		return failures
	}

	add("elevation", issue.NotElevatedId, c.checkElevation())
	if c.NeedVirtualization {
		add("virtualization", issue.VirtualizationUnavailableId, c.virt(c.lookPath))
	}
	if c.RequireBackupTarget {
		add("backup-target", issue.BackupTargetMissingId, c.checkBackupTarget())
	}
	add("tools", issue.ToolMissingId, c.checkTools())

	return failures
}

func (c *Checker) checkElevation() error {
	ok, err := c.elevated()
	if err != nil {
		return fmt.Errorf("determine privileges: %w", err)
	}
	if !ok {
		return errors.New("administrator rights are required")
	}
	return nil
}

func (c *Checker) checkBackupTarget() error {
	if c.BackupDir == "" {
		return errors.New("backup destination is not configured")
	}
	info, err := c.stat(c.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup destination %s does not exist", c.BackupDir)
		}
		return fmt.Errorf("stat backup destination %s: %w", c.BackupDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup destination %s is not a directory", c.BackupDir)
	}
	return nil
}

func (c *Checker) checkTools() error {
	var missing []string
	for _, tool := range c.RequiredTools {
		if _, err := c.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found on PATH: %v", missing)
	}
	return nil
}

// FirstError converts failures into a single ActionableError for fail-fast
// callers, preserving every failed check as a suggestion line.
func FirstError(failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}
	ectx := issue.NewErrorContext().
		WithOperation("verify preconditions").
		Wrap(failures[0].Err)
	for _, f := range failures {
		ectx.WithSuggestion(fmt.Sprintf("%s: %v", f.Check, f.Err))
	}
	ectx.WithSuggestion("run 'networkbuster preflight --explain' for remediation guidance")
	return ectx.BuildError()
}
