// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a well-known provisioning failure with canned remediation.
type Id int

const (
	NotElevatedId Id = iota + 1
	VirtualizationUnavailableId
	BackupTargetMissingId
	ToolMissingId
	DistroNotRegisteredId
	RunLockHeldId
	RepackImportFailedId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to look up the issue
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render returns the remediation guidance rendered for the terminal.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

// render is a seam for tests; glamour pulls in terminal detection that is
// awkward to assert against directly.
var render = glamour.Render

var (
	notElevatedIssue = &Issue{
		id: NotElevatedId,
		mdMsg: `
# Administrator rights required

Provisioning registers users, writes system files, and drives the WSL
service. None of that works from an unprivileged session.

## Things you can try
- On Windows, re-run from an elevated terminal (right click → *Run as administrator*)
- Inside the distribution, re-run with sudo:
~~~
$ sudo networkbuster provision
~~~`,
	}

	virtualizationUnavailableIssue = &Issue{
		id: VirtualizationUnavailableId,
		mdMsg: `
# WSL is not available

The Windows Subsystem for Linux executable (wsl.exe) was not found, or the
virtualization subsystem is disabled.

## Things you can try
- Install WSL from an elevated PowerShell:
~~~
PS> wsl --install
~~~
- Enable the "Virtual Machine Platform" optional feature and reboot
- If you are already inside a distribution, this tool only needs wsl.exe
  for the repack step; provision and backup work without it`,
	}

	backupTargetMissingIssue = &Issue{
		id: BackupTargetMissingId,
		mdMsg: `
# Backup destination does not exist

The backup destination must exist before any provisioning step runs, so
that scheduled backups never write into a missing mount.

## Things you can try
- Create the directory (or mount the backup drive), then retry:
~~~
$ mkdir -p /var/backups/networkbuster
~~~
- Point the tool somewhere else:
~~~
$ networkbuster provision --backup-dest /mnt/d/backups
~~~`,
	}

	toolMissingIssue = &Issue{
		id: ToolMissingId,
		mdMsg: `
# A required external tool is missing

Provisioning shells out to a small set of tools (sh, tar, crontab, apt).
One of them was not found on PATH.

## Things you can try
- Install the missing tool with the distribution package manager
- Re-run ` + "`networkbuster preflight`" + ` to see the full list`,
	}

	distroNotRegisteredIssue = &Issue{
		id: DistroNotRegisteredId,
		mdMsg: `
# Distribution is not registered

The named distribution is not known to WSL on this machine.

## Things you can try
- List registered distributions:
~~~
PS> wsl --list --verbose
~~~
- Pass the right name with ` + "`--distro`" + `, or import it first:
~~~
PS> wsl --import NetworkBuster C:\WSL\NetworkBuster image.tar
~~~`,
	}

	runLockHeldIssue = &Issue{
		id: RunLockHeldId,
		mdMsg: `
# Another provisioning run is in progress

Provisioning runs are strictly sequential; a lock file guards against two
runs interleaving package-manager and WSL state.

## Things you can try
- Wait for the other run to finish
- If a previous run crashed, remove the stale lock file reported in the
  error and retry`,
	}

	repackImportFailedIssue = &Issue{
		id: RepackImportFailedId,
		mdMsg: `
# Re-import failed after the original was unregistered

The export archive is retained on disk. The environment is recoverable
from it — do not delete the archive.

## Recovery
~~~
PS> wsl --import <new-name> <install-dir> <archive>
~~~
The exact archive path is printed in the error message.`,
	}

	issues = map[Id]*Issue{
		NotElevatedId:               notElevatedIssue,
		VirtualizationUnavailableId: virtualizationUnavailableIssue,
		BackupTargetMissingId:       backupTargetMissingIssue,
		ToolMissingId:               toolMissingIssue,
		DistroNotRegisteredId:       distroNotRegisteredIssue,
		RunLockHeldId:               runLockHeldIssue,
		RepackImportFailedId:        repackImportFailedIssue,
	}
)

// Lookup returns the catalog entry for id, or nil if there is none.
func Lookup(id Id) *Issue {
	return issues[id]
}

// Ids returns all catalog ids in ascending order.
func Ids() []Id {
	out := make([]Id, 0, len(issues))
	for id := range issues {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
