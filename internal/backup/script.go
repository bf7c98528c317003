// SPDX-License-Identifier: MPL-2.0

package backup

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ScriptConfig parameterizes the generated standalone backup script.
type ScriptConfig struct {
	// Dest is the backup destination directory.
	Dest string
	// Sources are the paths the script archives.
	Sources []Source
	// LogPath receives the script's own diagnostics.
	LogPath string
}

// DefaultScriptConfig matches the in-process bundle runner.
func DefaultScriptConfig(dest string) ScriptConfig {
	return ScriptConfig{
		Dest:    dest,
		Sources: DefaultSources(),
		LogPath: "/var/log/networkbuster/backup.log",
	}
}

// GenerateScript emits the standalone shell equivalent of the bundle
// runner, for the cron trigger. The output is parsed and re-printed with
// mvdan/sh, so an emitted script is always syntactically valid and in
// canonical shell formatting.
func GenerateScript(cfg ScriptConfig) (string, error) {
	raw := renderScript(cfg)

	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX), syntax.KeepComments(true))
	file, err := parser.Parse(strings.NewReader(raw), "backup.sh")
	if err != nil {
		return "", fmt.Errorf("generated script does not parse: %w", err)
	}

	var out strings.Builder
	if err := syntax.NewPrinter(syntax.Indent(2)).Print(&out, file); err != nil {
		return "", fmt.Errorf("format generated script: %w", err)
	}
	return "#!/bin/sh\n" + out.String(), nil
}

func renderScript(cfg ScriptConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# NetworkBuster backup runner. Regenerated on every provisioning run.\n")
	fmt.Fprintf(&b, "STAMP=$(date +%%Y%%m%%d-%%H%%M%%S)\n")
	fmt.Fprintf(&b, "BUNDLE=%s/$STAMP\n", cfg.Dest)
	fmt.Fprintf(&b, "LOG=%s\n", cfg.LogPath)
	b.WriteString("mkdir -p \"$BUNDLE\"\n")

	for _, src := range cfg.Sources {
		// Per-source failures are swallowed: one missing source must not
		// abort the bundle.
		fmt.Fprintf(&b,
			"if [ -d %[1]s ]; then tar -czf \"$BUNDLE\"/%[2]s.tar.gz -C %[1]s . || echo \"$STAMP %[2]s failed\" >> \"$LOG\"; else echo \"$STAMP %[2]s missing\" >> \"$LOG\"; fi\n",
			src.Path, src.Name,
		)
	}

	fmt.Fprintf(&b, "dpkg --get-selections > \"$BUNDLE\"/%s 2>> \"$LOG\" || true\n", ManifestName)
	fmt.Fprintf(&b, "echo \"$STAMP bundle complete\" >> \"$LOG\"\n")
	return b.String()
}
