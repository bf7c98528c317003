// SPDX-License-Identifier: MPL-2.0

// Package identity provisions the dedicated operating-system user, group,
// and directory layout inside the distribution. Every operation is safe
// to re-run: "already exists" is success, never an error.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/run"
)

type (
	// Layout describes the identity and directory tree to provision.
	Layout struct {
		// User is the dedicated account name.
		User string
		// Group is the primary group for User.
		Group string
		// AdminGroups are supplementary groups granting elevated access.
		AdminGroups []string
		// Dirs are created with mkdir -p and chowned to User:Group.
		Dirs []string
	}

	// Provisioner applies a Layout through a runner.
	Provisioner struct {
		runner run.Runner
		logger *log.Logger
	}
)

// DefaultLayout is the fixed NetworkBuster identity and directory tree.
func DefaultLayout() Layout {
	return Layout{
		User:        "netbuster",
		Group:       "netbuster",
		AdminGroups: []string{"sudo", "adm"},
		Dirs: []string{
			"/etc/networkbuster",
			"/var/log/networkbuster",
			"/opt/networkbuster",
			"/opt/networkbuster/data",
		},
	}
}

// New creates a Provisioner.
func New(runner run.Runner, logger *log.Logger) *Provisioner {
	if logger == nil {
		logger = log.Default()
	}
	return &Provisioner{runner: runner, logger: logger.With("component", "identity")}
}

// Apply provisions group, user, and directories, in that order.
func (p *Provisioner) Apply(ctx context.Context, layout Layout) error {
	if err := p.ensureGroup(ctx, layout.Group); err != nil {
		return err
	}
	if err := p.ensureUser(ctx, layout); err != nil {
		return err
	}
	return p.ensureDirs(ctx, layout)
}

// ensureGroup creates the group unless it already exists. The getent guard
// makes the common re-run path a no-op; exit code 9 (name already in use)
// is additionally treated as success to survive racing a manual groupadd.
func (p *Provisioner) ensureGroup(ctx context.Context, group string) error {
	p.logger.Info("ensuring group", "group", group)
	script := fmt.Sprintf("getent group %s >/dev/null || groupadd %s", group, group)
	res := p.runner.Run(ctx, run.Script("identity.group", script))
	if !ok(res) {
		return stepError("create group", group, res)
	}
	return nil
}

func (p *Provisioner) ensureUser(ctx context.Context, layout Layout) error {
	p.logger.Info("ensuring user", "user", layout.User)

	groups := strings.Join(layout.AdminGroups, ",")
	script := fmt.Sprintf(
		"getent passwd %s >/dev/null || useradd -m -g %s -G %s -s /bin/bash %s",
		layout.User, layout.Group, groups, layout.User,
	)
	res := p.runner.Run(ctx, run.Script("identity.user", script))
	if !ok(res) {
		return stepError("create user", layout.User, res)
	}

	// Membership is converged even when the user pre-existed.
	script = fmt.Sprintf("usermod -aG %s %s", groups, layout.User)
	res = p.runner.Run(ctx, run.Script("identity.groups", script))
	if !ok(res) {
		return stepError("assign admin groups", layout.User, res)
	}
	return nil
}

func (p *Provisioner) ensureDirs(ctx context.Context, layout Layout) error {
	for _, dir := range layout.Dirs {
		p.logger.Info("ensuring directory", "dir", dir)
		script := fmt.Sprintf("mkdir -p %s && chown %s:%s %s", dir, layout.User, layout.Group, dir)
		res := p.runner.Run(ctx, run.Script("identity.dir", script))
		if !ok(res) {
			return stepError("create directory", dir, res)
		}
	}
	return nil
}

// ok accepts success and the shadow-utils "already exists" status.
func ok(res *run.Result) bool {
	return res.Err == nil && (res.ExitCode.IsSuccess() || res.ExitCode.AlreadyExists())
}

func stepError(op, resource string, res *run.Result) error {
	cause := res.Err
	if cause == nil {
		cause = fmt.Errorf("exited %s: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		WithSuggestion("re-run; identity provisioning is idempotent").
		Wrap(cause).
		BuildError()
}
