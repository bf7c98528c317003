// SPDX-License-Identifier: MPL-2.0

package wsl

import (
	"context"
	"runtime"
	"strings"

	"networkbuster-cli/internal/run"
	"networkbuster-cli/pkg/platform"
)

// DistroRunner is a run.Runner that executes every command inside a named
// distribution by prefixing it with "wsl.exe -d <name> --".
type DistroRunner struct {
	distro string
	inner  run.Runner
}

var _ run.Runner = (*DistroRunner)(nil)

// NewDistroRunner wraps inner so commands run inside distro.
func NewDistroRunner(distro string, inner run.Runner) *DistroRunner {
	return &DistroRunner{distro: distro, inner: inner}
}

// Run executes c inside the distribution.
func (d *DistroRunner) Run(ctx context.Context, c run.Cmd) *run.Result {
	wrapped := run.Cmd{
		Name:     c.Name,
		Path:     Exe,
		Args:     append([]string{"-d", d.distro, "--", c.Path}, c.Args...),
		Dir:      c.Dir,
		Stdin:    c.Stdin,
		ReadOnly: c.ReadOnly,
	}
	return d.inner.Run(ctx, wrapped)
}

// TargetRunner returns the runner provisioning steps should use for the
// distribution: on a Windows host commands are routed through wsl.exe,
// while inside the distribution (or any other Unix) they run directly.
func TargetRunner(distro string, base run.Runner) run.Runner {
	if runtime.GOOS == platform.Windows {
		return NewDistroRunner(distro, base)
	}
	return base
}

// UNCPath maps an absolute path inside the distribution to the \\wsl$
// share the Windows host sees it under.
func UNCPath(distro, path string) string {
	return `\\wsl$\` + distro + strings.ReplaceAll(path, "/", `\`)
}
