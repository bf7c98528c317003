// SPDX-License-Identifier: MPL-2.0

package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"networkbuster-cli/pkg/types"
)

// ExecRunner runs commands via os/exec, capturing output.
type ExecRunner struct {
	logger *log.Logger
}

// NewExecRunner creates an ExecRunner logging through logger.
// A nil logger falls back to the package default.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &ExecRunner{logger: logger.With("component", "run")}
}

// Run executes c, blocking until it exits or ctx is canceled.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) *Result {
	r.logger.Debug("exec", "step", c.Name, "cmd", c.String())

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = types.ExitCode(exitErr.ExitCode())
		r.logger.Debug("exec finished", "step", c.Name, "exit", res.ExitCode)
	default:
		res.ExitCode = 1
		res.Err = fmt.Errorf("start %s: %w", c.Path, err)
	}
	return res
}
