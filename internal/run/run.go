// SPDX-License-Identifier: MPL-2.0

// Package run abstracts external process invocation behind a Runner
// interface so the provisioning steps can be executed for real, previewed
// in dry-run mode, or recorded in tests without touching the host.
package run

import (
	"context"
	"strings"

	"networkbuster-cli/pkg/types"
)

type (
	// Cmd describes one external command invocation.
	Cmd struct {
		// Name is a short human-readable label for logs and journal entries
		// (e.g. "apt.update", "backup.manifest").
		Name string

		// Path is the executable to invoke.
		Path string

		// Args are the arguments passed to the executable.
		Args []string

		// Dir is the working directory; empty means the caller's.
		Dir string

		// Stdin is fed to the process verbatim; empty means no stdin.
		Stdin string

		// ReadOnly marks commands that never mutate system state (probes,
		// manifest dumps). Dry-run execution still runs these for real so
		// the preview reflects actual host state.
		ReadOnly bool
	}

	// Result is the outcome of one invocation.
	Result struct {
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
		// Err is set only when the command could not be started or the
		// context was canceled; a plain non-zero exit leaves Err nil.
		Err error
	}

	// Runner executes commands. Implementations must be safe for
	// sequential reuse; none of the provisioning pipeline runs
	// commands concurrently.
	Runner interface {
		Run(ctx context.Context, c Cmd) *Result
	}
)

// Ok reports whether the command started and exited zero.
func (r *Result) Ok() bool {
	return r.Err == nil && r.ExitCode.IsSuccess()
}

// Script builds a Cmd that runs a shell snippet through "sh -c".
// This is the shape every in-distro provisioning step uses.
func Script(name, script string) Cmd {
	return Cmd{Name: name, Path: "sh", Args: []string{"-c", script}}
}

// ReadOnlyScript is Script with the ReadOnly flag set.
func ReadOnlyScript(name, script string) Cmd {
	c := Script(name, script)
	c.ReadOnly = true
	return c
}

// String renders the command line for logging.
func (c Cmd) String() string {
	parts := append([]string{c.Path}, c.Args...)
	return strings.Join(parts, " ")
}
