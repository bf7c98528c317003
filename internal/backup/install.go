// SPDX-License-Identifier: MPL-2.0

package backup

import (
	"context"
	"fmt"
	"strings"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/run"
)

// DefaultScriptPath is where the generated backup script is installed
// inside the distribution; the cron trigger invokes it with no arguments.
const DefaultScriptPath = "/usr/local/bin/networkbuster-backup.sh"

// InstallScript generates the backup script and installs it at path
// through the runner, executable by root.
func InstallScript(ctx context.Context, r run.Runner, cfg ScriptConfig, path string) error {
	script, err := GenerateScript(cfg)
	if err != nil {
		return err
	}

	install := fmt.Sprintf("cat > %s <<'NETWORKBUSTER_EOF'\n%sNETWORKBUSTER_EOF\nchmod 755 %s", path, script, path)
	res := r.Run(ctx, run.Script("backup.script", install))
	if res.Err != nil || !res.ExitCode.IsSuccess() {
		cause := res.Err
		if cause == nil {
			cause = fmt.Errorf("exited %s: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return issue.NewErrorContext().
			WithOperation("install backup script").
			WithResource(path).
			Wrap(cause).
			BuildError()
	}
	return nil
}
