// SPDX-License-Identifier: MPL-2.0

// Package wsl wraps the wsl.exe command-line interface: distribution
// lifecycle operations (export, import, unregister, terminate) and an
// adapter that runs shell commands inside a named distribution.
package wsl

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"networkbuster-cli/internal/run"
)

// Exe is the WSL service executable name on the Windows host.
const Exe = "wsl.exe"

// Client exposes the distribution lifecycle operations used by the
// repackager and the provisioning pipeline.
type Client interface {
	// List returns the names of all registered distributions.
	List(ctx context.Context) ([]string, error)
	// Export writes a full filesystem snapshot of the distribution to archive.
	Export(ctx context.Context, distro, archive string) error
	// Import registers a new distribution from archive under installDir.
	Import(ctx context.Context, distro, installDir, archive string) error
	// Unregister removes the distribution and its filesystem.
	Unregister(ctx context.Context, distro string) error
	// Terminate stops the distribution's running instance.
	Terminate(ctx context.Context, distro string) error
}

// ExecClient drives wsl.exe through a run.Runner.
type ExecClient struct {
	runner run.Runner
}

var _ Client = (*ExecClient)(nil)

// NewExecClient creates an ExecClient on top of runner.
func NewExecClient(runner run.Runner) *ExecClient {
	return &ExecClient{runner: runner}
}

func (c *ExecClient) List(ctx context.Context) ([]string, error) {
	res := c.runner.Run(ctx, run.Cmd{
		Name:     "wsl.list",
		Path:     Exe,
		Args:     []string{"--list", "--quiet"},
		ReadOnly: true,
	})
	if err := commandError("list distributions", res); err != nil {
		return nil, err
	}
	return parseDistroList(res.Stdout), nil
}

func (c *ExecClient) Export(ctx context.Context, distro, archive string) error {
	res := c.runner.Run(ctx, run.Cmd{
		Name: "wsl.export",
		Path: Exe,
		Args: []string{"--export", distro, archive},
	})
	return commandError(fmt.Sprintf("export distribution %s", distro), res)
}

func (c *ExecClient) Import(ctx context.Context, distro, installDir, archive string) error {
	res := c.runner.Run(ctx, run.Cmd{
		Name: "wsl.import",
		Path: Exe,
		Args: []string{"--import", distro, installDir, archive},
	})
	return commandError(fmt.Sprintf("import distribution %s", distro), res)
}

func (c *ExecClient) Unregister(ctx context.Context, distro string) error {
	res := c.runner.Run(ctx, run.Cmd{
		Name: "wsl.unregister",
		Path: Exe,
		Args: []string{"--unregister", distro},
	})
	return commandError(fmt.Sprintf("unregister distribution %s", distro), res)
}

func (c *ExecClient) Terminate(ctx context.Context, distro string) error {
	res := c.runner.Run(ctx, run.Cmd{
		Name: "wsl.terminate",
		Path: Exe,
		Args: []string{"--terminate", distro},
	})
	return commandError(fmt.Sprintf("terminate distribution %s", distro), res)
}

// Registered reports whether distro appears in the client's list.
func Registered(ctx context.Context, c Client, distro string) (bool, error) {
	names, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, distro), nil
}

func commandError(op string, res *run.Result) error {
	if res.Err != nil {
		return fmt.Errorf("%s: %w", op, res.Err)
	}
	if !res.ExitCode.IsSuccess() {
		detail := strings.TrimSpace(decodeOutput(res.Stderr))
		if detail == "" {
			detail = strings.TrimSpace(decodeOutput(res.Stdout))
		}
		if detail != "" {
			return fmt.Errorf("%s: wsl.exe exited %s: %s", op, res.ExitCode, detail)
		}
		return fmt.Errorf("%s: wsl.exe exited %s", op, res.ExitCode)
	}
	return nil
}

// parseDistroList splits "wsl --list --quiet" output into names.
func parseDistroList(out string) []string {
	var names []string
	for _, line := range strings.Split(decodeOutput(out), "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// decodeOutput normalizes wsl.exe output, which is UTF-16LE on most
// Windows builds but plain UTF-8 when invoked through some shims.
func decodeOutput(s string) string {
	b := []byte(s)
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		b = b[2:]
	} else if !looksUTF16(b) {
		return strings.ReplaceAll(s, "\r", "")
	}
	u16 := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u16 = append(u16, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return strings.ReplaceAll(string(utf16.Decode(u16)), "\r", "")
}

// looksUTF16 detects BOM-less UTF-16LE by the NUL high bytes ASCII text
// produces in that encoding.
func looksUTF16(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros > len(b)/4
}
