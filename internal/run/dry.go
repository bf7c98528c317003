// SPDX-License-Identifier: MPL-2.0

package run

import (
	"context"

	"github.com/charmbracelet/log"
)

// DryRunner previews mutating commands instead of executing them.
// ReadOnly commands are delegated to the wrapped runner so previews can
// still show real host state (e.g. the package manifest that would be
// written into a backup bundle).
type DryRunner struct {
	inner  Runner
	logger *log.Logger
	// Planned collects the mutating commands that would have run, in order.
	Planned []Cmd
}

// NewDryRunner wraps inner for dry-run execution.
func NewDryRunner(inner Runner, logger *log.Logger) *DryRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &DryRunner{inner: inner, logger: logger.With("component", "dry-run")}
}

// Run logs mutating commands without executing them and returns success.
func (d *DryRunner) Run(ctx context.Context, c Cmd) *Result {
	if c.ReadOnly && d.inner != nil {
		return d.inner.Run(ctx, c)
	}
	d.logger.Info("would run", "step", c.Name, "cmd", c.String())
	d.Planned = append(d.Planned, c)
	return &Result{}
}
