// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"strings"

	"networkbuster-cli/internal/run"
	"networkbuster-cli/pkg/types"
)

// Reply is a scripted response for a RecorderRunner.
type Reply struct {
	ExitCode types.ExitCode
	Stdout   string
	Stderr   string
	Err      error
}

// RecorderRunner is a run.Runner that records every command and answers
// from a script keyed by step name (or by a substring of the command line).
// Unmatched commands succeed with empty output.
type RecorderRunner struct {
	// Commands holds every command in invocation order.
	Commands []run.Cmd

	// ByStep maps Cmd.Name to a scripted reply.
	ByStep map[string]Reply

	// ByContains maps a command-line substring to a scripted reply.
	// Checked only when ByStep has no entry for the step name.
	ByContains map[string]Reply
}

var _ run.Runner = (*RecorderRunner)(nil)

// NewRecorderRunner creates an empty RecorderRunner.
func NewRecorderRunner() *RecorderRunner {
	return &RecorderRunner{
		ByStep:     map[string]Reply{},
		ByContains: map[string]Reply{},
	}
}

// Run records c and returns the scripted reply, or success.
func (r *RecorderRunner) Run(_ context.Context, c run.Cmd) *run.Result {
	r.Commands = append(r.Commands, c)

	if reply, ok := r.ByStep[c.Name]; ok {
		return reply.result()
	}
	line := c.String()
	for needle, reply := range r.ByContains {
		if strings.Contains(line, needle) {
			return reply.result()
		}
	}
	return &run.Result{}
}

// Steps returns the recorded step names in order.
func (r *RecorderRunner) Steps() []string {
	out := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.Name
	}
	return out
}

// Scripts returns the shell snippets of all recorded "sh -c" commands, in order.
func (r *RecorderRunner) Scripts() []string {
	var out []string
	for _, c := range r.Commands {
		if c.Path == "sh" && len(c.Args) == 2 && c.Args[0] == "-c" {
			out = append(out, c.Args[1])
		}
	}
	return out
}

func (re Reply) result() *run.Result {
	return &run.Result{
		ExitCode: re.ExitCode,
		Stdout:   re.Stdout,
		Stderr:   re.Stderr,
		Err:      re.Err,
	}
}
