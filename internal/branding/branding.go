// SPDX-License-Identifier: MPL-2.0

// Package branding writes the static identity files of the distribution:
// the release record and the login banner. Both are overwritten wholesale
// on every provisioning run; no history is kept.
package branding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/run"
)

const (
	// ReleasePath is the version/branding record inside the distribution.
	ReleasePath = "/etc/networkbuster-release"
	// BannerPath is the login banner shown on interactive sessions.
	BannerPath = "/etc/motd"
)

type (
	// Info is the data stamped into the branding files.
	Info struct {
		DistroName string
		Version    string
		RunID      string
		Time       time.Time
	}

	// Writer emits the branding files through a runner.
	Writer struct {
		runner run.Runner
		logger *log.Logger
	}
)

// New creates a Writer.
func New(runner run.Runner, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{runner: runner, logger: logger.With("component", "branding")}
}

// Write overwrites the release record and the login banner.
func (w *Writer) Write(ctx context.Context, info Info) error {
	if err := w.writeFile(ctx, "branding.release", ReleasePath, ReleaseContent(info)); err != nil {
		return err
	}
	return w.writeFile(ctx, "branding.banner", BannerPath, BannerContent(info))
}

// ReleaseContent renders the version record.
func ReleaseContent(info Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NAME=%s\n", info.DistroName)
	fmt.Fprintf(&b, "VERSION=%s\n", info.Version)
	fmt.Fprintf(&b, "PROVISIONED=%s\n", info.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "RUN_ID=%s\n", info.RunID)
	return b.String()
}

// BannerContent renders the login banner.
func BannerContent(info Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s %s\n", info.DistroName, info.Version)
	fmt.Fprintf(&b, "Provisioned %s\n", info.Time.UTC().Format("2006-01-02"))
	b.WriteString("\nDaily backups run automatically; see /var/log/networkbuster.\n")
	return b.String()
}

// writeFile replaces path wholesale via a quoted heredoc, so the content
// passes through the shell untouched.
func (w *Writer) writeFile(ctx context.Context, step, path, content string) error {
	w.logger.Info("writing branding file", "path", path)
	script := fmt.Sprintf("cat > %s <<'NETWORKBUSTER_EOF'\n%sNETWORKBUSTER_EOF\n", path, content)
	res := w.runner.Run(ctx, run.Script(step, script))
	if res.Err != nil || !res.ExitCode.IsSuccess() {
		cause := res.Err
		if cause == nil {
			cause = fmt.Errorf("exited %s: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return issue.NewErrorContext().
			WithOperation("write branding file").
			WithResource(path).
			Wrap(cause).
			BuildError()
	}
	return nil
}
